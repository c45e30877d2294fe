// ABOUTME: Conversation handlers for the inbox views
// ABOUTME: Listing, opening, status, assignment, sending, and event streaming

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapdesk/zapdesk/internal/auth"
	"github.com/zapdesk/zapdesk/internal/store"
)

// eventWaitTimeout bounds a long-poll on /events when no message arrives
const eventWaitTimeout = 25 * time.Second

func (s *Server) handleChatsList(w http.ResponseWriter, r *http.Request) {
	filter := store.ChatFilter{
		AssignedTo: r.URL.Query().Get("assigned_to"),
		Status:     r.URL.Query().Get("status"),
	}
	if filter.Status != "" && !store.ValidStatus(filter.Status) {
		writeBadRequest(w, "invalid status filter")
		return
	}

	chats, err := s.conversations.ListChats(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChatViews(chats))
}

type openChatResponse struct {
	Chat     chatView      `json:"chat"`
	Messages []messageView `json:"messages"`
}

// handleChatOpen returns the chat with its full message history and marks
// it read, mirroring the act of selecting a conversation in the inbox.
func (s *Server) handleChatOpen(w http.ResponseWriter, r *http.Request) {
	view, err := s.conversations.OpenChat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, openChatResponse{
		Chat:     toChatView(view.Chat),
		Messages: toMessageViews(view.Messages),
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleChatStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if !store.ValidStatus(req.Status) {
		writeBadRequest(w, "invalid status")
		return
	}

	if err := s.conversations.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

type assigneeRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) handleChatAssignee(w http.ResponseWriter, r *http.Request) {
	var req assigneeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, "userId is required")
		return
	}

	if err := s.conversations.Reassign(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"assignedTo": req.UserID})
}

type sendMessageRequest struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// handleChatSend appends an outgoing message authored by the logged-in
// operator
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Text == "" {
		writeBadRequest(w, "text is required")
		return
	}
	if req.Type == "" {
		req.Type = store.MessageTypeText
	}
	if !store.ValidMessageType(req.Type) {
		writeBadRequest(w, "invalid message type")
		return
	}

	sender := ""
	if user := auth.FromContext(r.Context()); user != nil {
		sender = user.Name
	}

	msg, err := s.conversations.SendMessage(r.Context(), chi.URLParam(r, "id"), req.Text, req.Type, sender)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageView(msg))
}

// handleChatEvents long-polls for new messages on a chat. The response is
// the batch of messages that arrived while waiting, possibly empty.
func (s *Server) handleChatEvents(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")

	// Reject unknown chats up front so a poller learns immediately
	if _, err := s.conversations.ChatMessages(r.Context(), chatID, 1); err != nil {
		writeError(w, err)
		return
	}

	timeout := eventWaitTimeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 && secs <= 60 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	events, _ := s.conversations.Subscribe(r.Context(), chatID)

	batch := []messageView{}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Wait for the first message, then drain whatever else is buffered
	select {
	case msg, ok := <-events:
		if ok {
			batch = append(batch, toMessageView(msg))
		}
	case <-timer.C:
	case <-r.Context().Done():
	}
	for len(batch) > 0 {
		select {
		case msg, ok := <-events:
			if !ok {
				writeJSON(w, http.StatusOK, batch)
				return
			}
			batch = append(batch, toMessageView(msg))
		default:
			writeJSON(w, http.StatusOK, batch)
			return
		}
	}
	writeJSON(w, http.StatusOK, batch)
}
