package imageclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/function61/gokit/net/http/ezhttp"
	"github.com/function61/remoteimage/pkg/appconfig"
	"github.com/function61/remoteimage/pkg/imagetypes"
)

type Client struct {
	serverBaseurl string
}

func New(serverBaseurl string) *Client {
	return &Client{serverBaseurl}
}

// Admission asks the server whether it would fetch imageUrl. A denial is not an error.
func (c *Client) Admission(ctx context.Context, imageUrl string) (*imagetypes.Decision, error) {
	decision := &imagetypes.Decision{}
	_, err := ezhttp.Get(
		ctx,
		c.serverBaseurl+"/api/admission?url="+url.QueryEscape(imageUrl),
		ezhttp.RespondsJson(decision, true))
	return decision, err
}

// Config fetches the server's configuration, validated like a locally loaded one
func (c *Client) Config(ctx context.Context) (*appconfig.Config, error) {
	conf := &appconfig.Config{}
	if _, err := ezhttp.Get(
		ctx,
		c.serverBaseurl+"/api/config",
		ezhttp.RespondsJson(conf, true),
	); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("server sent invalid config: %w", err)
	}

	return conf, nil
}
