package telegram

import (
	"context"

	"github.com/gotd/td/tg"
)

// MessagesGetDialogs returns a page of the current user's dialogs.
func (c *Client) MessagesGetDialogs(ctx context.Context, q DialogsQuery) (tg.MessagesDialogsClass, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetDate: q.OffsetDate,
		OffsetID:   q.OffsetID,
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      q.Limit,
	})
}

// MessagesAddChatUser adds a user to a basic group.
func (c *Client) MessagesAddChatUser(ctx context.Context, a AddChatUser) (*tg.MessagesInvitedUsers, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	fwdLimit := a.FwdLimit
	if fwdLimit == 0 {
		fwdLimit = DefaultFwdLimit
	}

	return c.api.MessagesAddChatUser(ctx, &tg.MessagesAddChatUserRequest{
		ChatID:   a.ChatID,
		UserID:   a.User.input(),
		FwdLimit: fwdLimit,
	})
}
