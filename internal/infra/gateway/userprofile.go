package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lsiproject/propertyhub/client"
	"github.com/lsiproject/propertyhub/internal/domain"
)

// UserProfileGateway reads profiles from the user management service.
type UserProfileGateway struct {
	client  *client.Client
	baseURL string
}

func NewUserProfileGateway(cl *client.Client, baseURL string) *UserProfileGateway {
	return &UserProfileGateway{
		client:  cl,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (g *UserProfileGateway) GetUserByID(ctx context.Context, id int64) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := g.client.GetJSON(ctx, fmt.Sprintf("%s/api/users/id/%d", g.baseURL, id), &profile)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, domain.NotFoundError{Resource: "user"}
		}
		return nil, err
	}
	return &profile, nil
}
