// Package config loads Halo's externalized configuration.
//
// Sources are layered with viper, lowest precedence first:
//
//  1. defaults registered by the binding packages (properties, server, ...)
//  2. application.{yaml,yml,json,toml,properties} files found in the
//     additional locations; the first location that defines a key wins
//  3. environment variables (halo.admin-path ← HALO_ADMIN_PATH), including
//     variables loaded from .env files in those locations
//  4. command-line overrides of the form --halo.admin-path=dashboard
//
// The additional locations come from HALO_CONFIG_ADDITIONAL_LOCATION, a
// comma-separated list of file URIs. PrepareSearchPath puts the user-home
// locations ($HOME/.halo/ and $HOME/halo-dev/) at its front.
package config
