package telegram

import (
	"regexp"

	"github.com/gotd/td/tg"
)

// Limits enforced by Telegram servers.
const (
	MaxDialogsLimit      = 100
	MaxParticipantsLimit = 200
	MaxFwdLimit          = 100
	MaxInviteUsers       = 200

	// DefaultFwdLimit is the number of old messages a user added to a chat
	// can see.
	DefaultFwdLimit = 50
)

var (
	phoneRe = regexp.MustCompile(`^\+?[0-9]{5,15}$`)
	codeRe  = regexp.MustCompile(`^[0-9]{3,10}$`)
)

// InputUser references a user by ID and access hash.
type InputUser struct {
	ID         int64 `json:"id"`
	AccessHash int64 `json:"access_hash"`
}

func (u InputUser) validate(method, field string) error {
	if u.ID <= 0 {
		return invalid(method, field+".id", "must be positive")
	}
	return nil
}

func (u InputUser) input() *tg.InputUser {
	return &tg.InputUser{UserID: u.ID, AccessHash: u.AccessHash}
}

// InputChannel references a channel or supergroup by ID and access hash.
type InputChannel struct {
	ID         int64 `json:"id"`
	AccessHash int64 `json:"access_hash"`
}

func (ch InputChannel) validate(method string) error {
	if ch.ID <= 0 {
		return invalid(method, "channel.id", "must be positive")
	}
	return nil
}

func (ch InputChannel) input() *tg.InputChannel {
	return &tg.InputChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
}

// DialogsQuery pages through the current user's dialogs.
type DialogsQuery struct {
	OffsetDate int `json:"offset_date"`
	OffsetID   int `json:"offset_id"`
	Limit      int `json:"limit"`
}

// Validate checks offsets and limit.
func (q DialogsQuery) Validate() error {
	const method = "messages.getDialogs"
	switch {
	case q.OffsetDate < 0:
		return invalid(method, "offset_date", "must not be negative")
	case q.OffsetID < 0:
		return invalid(method, "offset_id", "must not be negative")
	case q.Limit <= 0 || q.Limit > MaxDialogsLimit:
		return invalid(method, "limit", "must be in [1, 100]")
	}
	return nil
}

// AddChatUser adds a user to a basic group.
type AddChatUser struct {
	ChatID int64     `json:"chat_id"`
	User   InputUser `json:"user"`
	// FwdLimit is DefaultFwdLimit if zero.
	FwdLimit int `json:"fwd_limit"`
}

// Validate checks IDs and forward limit.
func (a AddChatUser) Validate() error {
	const method = "messages.addChatUser"
	if a.ChatID <= 0 {
		return invalid(method, "chat_id", "must be positive")
	}
	if err := a.User.validate(method, "user"); err != nil {
		return err
	}
	if a.FwdLimit < 0 || a.FwdLimit > MaxFwdLimit {
		return invalid(method, "fwd_limit", "must be in [0, 100]")
	}
	return nil
}

// InviteToChannel adds users to a channel or supergroup.
type InviteToChannel struct {
	Channel InputChannel `json:"channel"`
	Users   []InputUser  `json:"users"`
}

// Validate checks the channel and every user.
func (i InviteToChannel) Validate() error {
	const method = "channels.inviteToChannel"
	if err := i.Channel.validate(method); err != nil {
		return err
	}
	if len(i.Users) == 0 || len(i.Users) > MaxInviteUsers {
		return invalid(method, "users", "must contain 1 to 200 users")
	}
	for _, u := range i.Users {
		if err := u.validate(method, "users"); err != nil {
			return err
		}
	}
	return nil
}

// ParticipantsQuery pages through recent participants of a channel.
type ParticipantsQuery struct {
	Channel InputChannel `json:"channel"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
}

// Validate checks the channel, offset and limit.
func (q ParticipantsQuery) Validate() error {
	const method = "channels.getParticipants"
	if err := q.Channel.validate(method); err != nil {
		return err
	}
	if q.Offset < 0 {
		return invalid(method, "offset", "must not be negative")
	}
	if q.Limit <= 0 || q.Limit > MaxParticipantsLimit {
		return invalid(method, "limit", "must be in [1, 200]")
	}
	return nil
}

// ImportContact is a phone contact to import.
type ImportContact struct {
	// ClientID identifies the contact within one import, assigned from its
	// position if zero.
	ClientID  int64  `json:"client_id"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ImportContacts imports phone contacts, prepending Prefix to first names.
type ImportContacts struct {
	Contacts []ImportContact `json:"contacts"`
	Prefix   string          `json:"prefix"`
}

// Validate checks every contact and the uniqueness of client IDs.
func (i ImportContacts) Validate() error {
	const method = "contacts.importContacts"
	if len(i.Contacts) == 0 {
		return invalid(method, "contacts", "must not be empty")
	}
	seen := make(map[int64]struct{}, len(i.Contacts))
	for idx, contact := range i.Contacts {
		if !phoneRe.MatchString(contact.Phone) {
			return invalid(method, "contacts.phone", "must be 5 to 15 digits")
		}
		if i.Prefix+contact.FirstName == "" {
			return invalid(method, "contacts.first_name", "must not be empty")
		}
		id := contact.clientID(idx)
		if _, ok := seen[id]; ok {
			return invalid(method, "contacts.client_id", "must be unique")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (c ImportContact) clientID(idx int) int64 {
	if c.ClientID != 0 {
		return c.ClientID
	}
	return int64(idx + 1)
}

func (i ImportContacts) input() []tg.InputPhoneContact {
	contacts := make([]tg.InputPhoneContact, 0, len(i.Contacts))
	for idx, c := range i.Contacts {
		contacts = append(contacts, tg.InputPhoneContact{
			ClientID:  c.clientID(idx),
			Phone:     c.Phone,
			FirstName: i.Prefix + c.FirstName,
			LastName:  c.LastName,
		})
	}
	return contacts
}

func validatePhone(method, phone string) error {
	if !phoneRe.MatchString(phone) {
		return invalid(method, "phone", "must be 5 to 15 digits")
	}
	return nil
}

func validateCode(method, code string) error {
	if !codeRe.MatchString(code) {
		return invalid(method, "code", "must be 3 to 10 digits")
	}
	return nil
}
