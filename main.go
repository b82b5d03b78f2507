package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mady/mystrava/config"
	"github.com/mady/mystrava/strava"
)

// TargetName is what every yoga activity from the last day gets
// renamed to.
const TargetName = "#yogamitmady"

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	client := strava.New(log)

	if err := run(context.Background(), log, client, cfg, os.Stdin); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logrus.Logger, client *strava.Client, cfg *config.Config, in io.Reader) error {
	if cfg.RefreshToken == "" {
		if err := authorize(ctx, client, cfg, in); err != nil {
			return err
		}
	}

	tokens, err := client.Refresh(ctx, cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "could not refresh access token")
	}

	after := time.Now().Add(-24 * time.Hour).Unix()

	activities, err := client.YogaActivities(ctx, tokens.AccessToken, after)
	if err != nil {
		return errors.Wrap(err, "could not list activities")
	}

	renameAll(ctx, log, client, tokens.AccessToken, activities)

	return nil
}

// authorize walks the user through the one-time consent flow and
// persists the resulting refresh token.
func authorize(ctx context.Context, client *strava.Client, cfg *config.Config, in io.Reader) error {
	fmt.Printf("Navigate to the following URL to get your authorization code: %s\n", client.AuthURL(cfg.ClientID, cfg.RedirectURI))
	fmt.Print("Enter the authorization code: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return errors.New("no authorization code entered")
	}
	code := strings.TrimSpace(scanner.Text())

	tokens, err := client.ExchangeCode(ctx, cfg.ClientID, cfg.ClientSecret, code)
	if err != nil {
		return errors.Wrap(err, "could not exchange authorization code")
	}
	if tokens.RefreshToken == "" {
		return errors.New("token exchange reply carried no refresh token")
	}

	return cfg.PersistRefreshToken(tokens.RefreshToken)
}

// renameAll renames every activity that does not carry the target name
// yet. Update failures are logged and skipped, one stubborn activity
// should not stop the rest.
func renameAll(ctx context.Context, log *logrus.Logger, client *strava.Client, accessToken string, activities []strava.Activity) {
	for _, activity := range activities {
		if activity.Name == TargetName {
			continue
		}

		if err := client.UpdateActivityName(ctx, accessToken, activity.ID, TargetName); err != nil {
			log.WithField("activity_id", activity.ID).Error(err)
		}
	}
}
