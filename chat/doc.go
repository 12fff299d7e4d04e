// Package chat contains the Twitch chat listener for the contribution
// pipeline.
//
// StartContributionListener connects to Twitch IRC for TWITCH_CHANNEL and
// feeds every chat line through admission control (self-message skip, dedup
// guard, trigger prefix check) before handing it to the command registry.
// Exactly one handler runs per admitted command line.
//
// Credentials: the IRC client requires a bot username and an OAuth token with
// chat:read/chat:edit scopes. If TWITCH_OAUTH_TOKEN is not provided, the
// package will try to reuse a stored token from the oauth_tokens table for
// provider "twitch".
package chat
