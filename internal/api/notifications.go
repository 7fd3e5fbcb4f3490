package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nlechev/taskflow/internal/model"
)

func (s *Server) listNotifications(c *gin.Context) {
	notifications, err := s.store.GetNotifications(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	c.JSON(http.StatusOK, notifications)
}

// markNotificationsRead marks all of the caller's notifications read.
func (s *Server) markNotificationsRead(c *gin.Context) {
	if err := s.store.MarkNotificationsRead(c.Request.Context(), currentUserID(c)); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked read"})
}

// deleteNotification removes one of the caller's own notifications.
func (s *Server) deleteNotification(c *gin.Context) {
	err := s.store.DeleteNotification(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

// streamEvents subscribes the caller to their realtime channel and
// relays events as server-sent events until the client disconnects.
func (s *Server) streamEvents(c *gin.Context) {
	userID := currentUserID(c)

	ch, cancel := s.hub.Subscribe(userID)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
