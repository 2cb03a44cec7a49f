// README: Server-sent events stream of attendee changes for the roster UI.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rally/internal/modules/attendee"
	"rally/internal/types"
)

type FeedHandler struct {
	feed *attendee.Feed
}

func NewFeedHandler(feed *attendee.Feed) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// Stream pushes one SSE message per attendee change in the event, until the
// client disconnects.
func (h *FeedHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	changes, cancel := h.feed.Subscribe(types.ID(c.Param("id")))
	defer cancel()

	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case change, open := <-changes:
			if !open {
				return
			}
			payload := gin.H{}
			if change.Old != nil {
				payload["old"] = attendeeView(change.Old)
			}
			if change.New != nil {
				payload["new"] = attendeeView(change.New)
			}
			data, err := json.Marshal(payload)
			if err != nil {
				slog.Error("marshal feed change", "error", err)
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
