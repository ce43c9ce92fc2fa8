package telegram

import (
	"context"
	"slices"

	"github.com/gotd/td/tg"
)

// ContactsGetContacts returns the contact list. If knownIDs is the
// caller's current list of contact user IDs, the server answers
// contacts.contactsNotModified when nothing changed.
func (c *Client) ContactsGetContacts(ctx context.Context, knownIDs []int64) (tg.ContactsContactsClass, error) {
	return c.api.ContactsGetContacts(ctx, ContactsHash(knownIDs))
}

// ContactsImportContacts imports phone contacts.
func (c *Client) ContactsImportContacts(ctx context.Context, i ImportContacts) (*tg.ContactsImportedContacts, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}

	return c.api.ContactsImportContacts(ctx, i.input())
}

// ContactsHash computes the Telegram pagination hash of a contact list from
// its user IDs in ascending order. Zero for an empty list.
func ContactsHash(ids []int64) int64 {
	sorted := append([]int64(nil), ids...)
	slices.Sort(sorted)

	var h uint64
	for _, id := range sorted {
		h ^= h >> 21
		h ^= h << 35
		h ^= h >> 4
		h += uint64(id)
	}
	return int64(h)
}
