package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/fathurrohman/blog-platform/internal/auth"
)

type stubService struct {
	lastUnreadOnly bool
	notifications  []Notification
	unread         int64
}

func (s *stubService) List(principal *auth.Principal, unreadOnly bool, query ListQuery) ([]Notification, int64, error) {
	s.lastUnreadOnly = unreadOnly
	return s.notifications, int64(len(s.notifications)), nil
}

func (s *stubService) UnreadCount(principal *auth.Principal) (int64, error) {
	return s.unread, nil
}

func (s *stubService) MarkRead(principal *auth.Principal, notificationID int64) error { return nil }

func (s *stubService) MarkAllRead(principal *auth.Principal) (int64, error) { return 0, nil }

func (s *stubService) Delete(principal *auth.Principal, notificationID int64) error { return nil }

var _ = ginkgo.Describe("NotificationHandler", func() {
	var (
		stub    *stubService
		handler *Handler

		recipient = &auth.Principal{ID: 7, Username: "inboxer", Role: auth.RoleReader}
	)

	ginkgo.BeforeEach(func() {
		stub = &stubService{
			notifications: []Notification{{ID: 1, RecipientID: 7, Type: TypeComment, Title: "New comment"}},
			unread:        3,
		}
		handler = NewHandler(stub)
	})

	list := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), recipient))
		w := httptest.NewRecorder()
		handler.List(w, req)
		return w
	}

	ginkgo.Describe("List", func() {
		ginkgo.It("should pass the unreadOnly query parameter through", func() {
			w := list("/notifications?unreadOnly=true")
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(stub.lastUnreadOnly).To(gomega.BeTrue())

			w = list("/notifications")
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(stub.lastUnreadOnly).To(gomega.BeFalse())
		})

		ginkgo.It("should embed the unread count in the page envelope", func() {
			w := list("/notifications")
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

			var body struct {
				Data listResponse `json:"data"`
			}
			gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
			gomega.Expect(body.Data.UnreadCount).To(gomega.Equal(int64(3)))
			gomega.Expect(body.Data.Total).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("should require authentication", func() {
			req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
			w := httptest.NewRecorder()
			handler.List(w, req)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
