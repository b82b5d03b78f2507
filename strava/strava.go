package strava

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	BaseURL = "https://www.strava.com"

	// Scope grants profile read plus activity read/write, the minimum
	// needed to list and rename activities.
	Scope = "read,activity:read,activity:write"

	// YogaType is the only activity type this tool touches.
	YogaType = "Yoga"

	perPage = 100
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	// BaseURL can be pointed at a test server.
	BaseURL string

	client *http.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) *Client {
	return &Client{
		BaseURL: BaseURL,
		client:  http.DefaultClient,
		log:     log,
	}
}

// AuthURL builds the consent screen URL the user has to open to grant
// access and obtain a one-time authorization code. The redirect URI is
// passed through as-is, Strava accepts it unescaped.
func (c *Client) AuthURL(clientID, redirectURI string) string {
	return fmt.Sprintf("%s/oauth/authorize?client_id=%s&redirect_uri=%s&response_type=code&scope=%s",
		c.BaseURL, clientID, redirectURI, url.QueryEscape(Scope))
}

// ExchangeCode trades a one-time authorization code for an access and
// refresh token pair.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, code string) (TokenResponse, error) {
	form := url.Values{}
	form.Add("client_id", clientID)
	form.Add("client_secret", clientSecret)
	form.Add("code", code)
	form.Add("grant_type", "authorization_code")

	return c.token(ctx, form)
}

// Refresh trades a stored refresh token for a fresh access token. The
// reply may carry a rotated refresh token.
func (c *Client) Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (TokenResponse, error) {
	form := url.Values{}
	form.Add("client_id", clientID)
	form.Add("client_secret", clientSecret)
	form.Add("refresh_token", refreshToken)
	form.Add("grant_type", "refresh_token")

	return c.token(ctx, form)
}

func (c *Client) token(ctx context.Context, form url.Values) (TokenResponse, error) {
	tokens := TokenResponse{}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return tokens, errors.Wrap(err, "could not prepare token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return tokens, errors.Wrap(err, "could not do token request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return tokens, errors.Errorf("strava token error: %v: %s", resp.Status, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return tokens, errors.Wrap(err, "could not decode token response")
	}

	return tokens, nil
}

// YogaActivities lists the athlete's activities started after the
// given unix timestamp and keeps only those of type Yoga, in the order
// the API returned them. Only the first page is fetched, 100 entries
// cover far more than a day of yoga.
func (c *Client) YogaActivities(ctx context.Context, accessToken string, after int64) ([]Activity, error) {
	query := url.Values{}
	query.Add("after", strconv.FormatInt(after, 10))
	query.Add("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/api/v3/athlete/activities?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not prepare activities request")
	}
	req.Header.Add("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not do activities request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Errorf("strava activities error: %v: %s", resp.Status, body)
	}

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, errors.Wrap(err, "could not decode activities response")
	}

	yoga := []Activity{}
	for _, activity := range activities {
		if activity.Type == YogaType {
			yoga = append(yoga, activity)
		}
	}

	return yoga, nil
}

// UpdateActivityName renames a single activity. Strava takes the new
// name as a query parameter on the PUT.
func (c *Client) UpdateActivityName(ctx context.Context, accessToken string, activityID int64, name string) error {
	query := url.Values{}
	query.Add("name", name)

	updateURL := fmt.Sprintf("%s/api/v3/activities/%d?%s", c.BaseURL, activityID, query.Encode())
	req, err := http.NewRequestWithContext(ctx, "PUT", updateURL, nil)
	if err != nil {
		return errors.Wrap(err, "could not prepare update request")
	}
	req.Header.Add("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "could not do update request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("strava update error: %v: %s", resp.Status, body)
	}

	c.log.WithFields(logrus.Fields{
		"activity_id": activityID,
		"name":        name,
	}).Info("updated activity")

	return nil
}
