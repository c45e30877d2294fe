// ABOUTME: Inbound message webhook for channel instances
// ABOUTME: Authenticated by the instance token, not an operator session

package api

import (
	"net/http"

	"github.com/zapdesk/zapdesk/internal/store"
)

// instanceTokenHeader carries the channel's ingest credential
const instanceTokenHeader = "X-Instance-Token"

type ingestRequest struct {
	ChatID     string `json:"chatId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Type       string `json:"type,omitempty"`
	MediaURL   string `json:"mediaUrl,omitempty"`
}

// handleIngest records an incoming message delivered by a connected
// instance. Inactive or unknown tokens are rejected before any write.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(instanceTokenHeader)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing instance token"})
		return
	}

	inst, err := s.instances.Authenticate(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid instance token"})
		return
	}

	var req ingestRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.ChatID == "" || req.SenderName == "" || req.Text == "" {
		writeBadRequest(w, "chatId, senderName, and text are required")
		return
	}
	if req.Type == "" {
		req.Type = store.MessageTypeText
	}
	if !store.ValidMessageType(req.Type) {
		writeBadRequest(w, "invalid message type")
		return
	}

	msg, err := s.conversations.ReceiveMessage(r.Context(), req.ChatID, req.SenderName, req.Text, req.Type, req.MediaURL)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("message ingested",
		"instance_id", inst.InstanceID,
		"chat_id", req.ChatID)
	writeJSON(w, http.StatusCreated, toMessageView(msg))
}
