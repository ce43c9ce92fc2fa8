package telegram

import (
	"context"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// AuthSendCode requests a sign-in code for phone and remembers the returned
// phone code hash for AuthSignIn.
func (c *Client) AuthSendCode(ctx context.Context, phone string) (tg.AuthSentCodeClass, error) {
	if err := validatePhone("auth.sendCode", phone); err != nil {
		return nil, err
	}

	sent, err := c.api.AuthSendCode(ctx, &tg.AuthSendCodeRequest{
		PhoneNumber: phone,
		APIID:       c.appID,
		APIHash:     c.appHash,
		Settings:    tg.CodeSettings{},
	})
	if err != nil {
		return nil, err
	}

	if code, ok := sent.(*tg.AuthSentCode); ok {
		c.setCredentials(Credentials{Phone: phone, PhoneCodeHash: code.PhoneCodeHash})
		c.log.Debug("Sign-in code sent", zap.String("type", code.Type.TypeName()))
	}
	return sent, nil
}

// AuthSignIn signs in with code using credentials from AuthSendCode.
func (c *Client) AuthSignIn(ctx context.Context, code string) (tg.AuthAuthorizationClass, error) {
	if err := validateCode("auth.signIn", code); err != nil {
		return nil, err
	}
	creds, ok := c.Credentials()
	if !ok {
		return nil, ErrNoPendingCode
	}

	return c.api.AuthSignIn(ctx, &tg.AuthSignInRequest{
		PhoneNumber:   creds.Phone,
		PhoneCodeHash: creds.PhoneCodeHash,
		PhoneCode:     code,
	})
}
