package telegram

import (
	"context"

	"github.com/gotd/td/tg"
)

// ChannelsInviteToChannel adds users to a channel or supergroup.
func (c *Client) ChannelsInviteToChannel(ctx context.Context, i InviteToChannel) (*tg.MessagesInvitedUsers, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}

	users := make([]tg.InputUserClass, 0, len(i.Users))
	for _, u := range i.Users {
		users = append(users, u.input())
	}
	return c.api.ChannelsInviteToChannel(ctx, &tg.ChannelsInviteToChannelRequest{
		Channel: i.Channel.input(),
		Users:   users,
	})
}

// ChannelsGetParticipants returns a page of recent channel participants.
func (c *Client) ChannelsGetParticipants(ctx context.Context, q ParticipantsQuery) (tg.ChannelsChannelParticipantsClass, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.api.ChannelsGetParticipants(ctx, &tg.ChannelsGetParticipantsRequest{
		Channel: q.Channel.input(),
		Filter:  &tg.ChannelParticipantsRecent{},
		Offset:  q.Offset,
		Limit:   q.Limit,
	})
}
