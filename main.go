package main

import "github.com/fathurrohman/blog-platform/cmd"

func main() {
	cmd.Execute()
}
