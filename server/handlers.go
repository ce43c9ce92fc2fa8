package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sudo-xjx-code/xjx-tele-gateway/telegram"
)

const maxBodySize = 1 << 20

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	d := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	d.DisallowUnknownFields()
	if err := d.Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badRequest("invalid body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.client.AuthSendCode(r.Context(), body.Phone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.client.AuthSignIn(r.Context(), body.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleDialogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		query telegram.DialogsQuery
		err   error
	)
	if query.OffsetDate, err = queryInt(q, "offset_date", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if query.OffsetID, err = queryInt(q, "offset_id", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if query.Limit, err = queryInt(q, "limit", 20); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.client.MessagesGetDialogs(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleAddChatUser(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathID(r, "chat_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		UserID     int64 `json:"user_id"`
		AccessHash int64 `json:"access_hash"`
		FwdLimit   int   `json:"fwd_limit"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.client.MessagesAddChatUser(r.Context(), telegram.AddChatUser{
		ChatID:   chatID,
		User:     telegram.InputUser{ID: body.UserID, AccessHash: body.AccessHash},
		FwdLimit: body.FwdLimit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleInviteToChannel(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "channel_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		AccessHash int64                `json:"access_hash"`
		Users      []telegram.InputUser `json:"users"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.client.ChannelsInviteToChannel(r.Context(), telegram.InviteToChannel{
		Channel: telegram.InputChannel{ID: channelID, AccessHash: body.AccessHash},
		Users:   body.Users,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "channel_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	query := telegram.ParticipantsQuery{Channel: telegram.InputChannel{ID: channelID}}
	if query.Channel.AccessHash, err = queryInt64(q, "access_hash"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if query.Offset, err = queryInt(q, "offset", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if query.Limit, err = queryInt(q, "limit", 100); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.client.ChannelsGetParticipants(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				s.writeError(w, r, &telegram.ValidationError{
					Method: "contacts.getContacts",
					Field:  "ids",
					Reason: "must be comma-separated integers",
				})
				return
			}
			ids = append(ids, id)
		}
	}

	res, err := s.client.ContactsGetContacts(r.Context(), ids)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleImportContacts(w http.ResponseWriter, r *http.Request) {
	var body telegram.ImportContacts
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.client.ContactsImportContacts(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, res)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, &telegram.ValidationError{Method: r.URL.Path, Field: name, Reason: "must be an integer"}
	}
	return id, nil
}

func queryInt(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &telegram.ValidationError{Method: "query", Field: name, Reason: "must be an integer"}
	}
	return n, nil
}

func queryInt64(q url.Values, name string) (int64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &telegram.ValidationError{Method: "query", Field: name, Reason: "must be an integer"}
	}
	return n, nil
}
