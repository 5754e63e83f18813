package util

import (
	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// BuildSecretStore opens the local secrets file named by `secrets.file`
// and overlays any `secrets.static` entries from the config on top of it.
// A nil store is returned when neither is available, which is fine as long
// as no community references a secret.
func BuildSecretStore() secrets.SecretStore {
	static := viper.GetStringMapString("secrets.static")
	store := openLocalStore(viper.GetString("secrets.file"))

	switch {
	case store == nil && len(static) == 0:
		return nil
	case store == nil:
		return secrets.NewStaticStore(static)
	case len(static) == 0:
		return store
	}

	// merged in memory only, the secrets file is never rewritten here
	merged := map[string]string{}
	stored, err := store.ListSecrets()
	if err != nil {
		log.Error().Err(err).Msg("failed to list stored secrets")
	}
	for id := range stored {
		v, err := store.GetSecretByID(id)
		if err != nil {
			log.Error().Err(err).Str("id", id).Msg("failed to read stored secret")
			continue
		}
		merged[id] = v
	}
	for id, v := range static {
		log.Debug().Str("id", id).Msg("overriding stored secret with value from config")
		merged[id] = v
	}
	return secrets.NewStaticStore(merged)
}

func openLocalStore(path string) secrets.SecretStore {
	if path == "" {
		return nil
	}
	if _, exists := PathExists(path); !exists {
		log.Debug().Str("path", path).Msg("no secrets file found")
		return nil
	}
	store, err := secrets.OpenStore(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to open local secrets store")
		return nil
	}
	return store
}
