package config

import (
	"os"

	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvFile is the dotenv file that carries the refresh token between
// runs.
const EnvFile = ".env"

const (
	keyClientID     = "strava_client_id"
	keyClientSecret = "strava_client_secret"
	keyRefreshToken = "strava_refresh_token"
	keyRedirectURI  = "strava_redirect_uri"
)

// Config carries everything one run needs. It is loaded once at
// startup; only the refresh token is ever written back.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURI  string

	viper   *viper.Viper
	envFile string
}

// Load reads configuration from the process environment, falling back
// to the dotenv file. STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are
// required, the client id must be numeric.
func Load() (*Config, error) {
	return LoadFile(EnvFile)
}

func LoadFile(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault(keyRedirectURI, "http://localhost")

	if err := v.ReadInConfig(); err != nil {
		// A missing env file just means first run without one.
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "could not read env file")
		}
	}

	config := &Config{
		ClientID:     v.GetString(keyClientID),
		ClientSecret: v.GetString(keyClientSecret),
		RefreshToken: v.GetString(keyRefreshToken),
		RedirectURI:  v.GetString(keyRedirectURI),
		viper:        v,
		envFile:      envFile,
	}

	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, errors.New("missing STRAVA_CLIENT_ID or STRAVA_CLIENT_SECRET")
	}
	if !govalidator.IsNumeric(config.ClientID) {
		return nil, errors.Errorf("invalid STRAVA_CLIENT_ID: %q is not numeric", config.ClientID)
	}
	if !govalidator.IsURL(config.RedirectURI) {
		return nil, errors.Errorf("invalid STRAVA_REDIRECT_URI: %q", config.RedirectURI)
	}

	return config, nil
}

// PersistRefreshToken writes the refresh token to the dotenv file so
// later runs can skip the interactive authorization.
func (c *Config) PersistRefreshToken(token string) error {
	c.RefreshToken = token
	c.viper.Set(keyRefreshToken, token)

	if err := c.viper.WriteConfigAs(c.envFile); err != nil {
		return errors.Wrap(err, "could not write env file")
	}

	return nil
}
