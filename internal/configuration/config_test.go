package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	content := `{
		"mongo": {
			"uri": "mongodb://localhost:27017",
			"database": "chatnexus",
			"messagesCollection": "messages",
			"roomsCollection": "rooms",
			"usersCollection": "users",
			"socketRoute": "ws"
		},
		"server": {
			"app_port": 8080,
			"socket_port": 8081,
			"allowed_origins": ["http://localhost:4200"]
		}
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017", config.Chat.Uri)
	require.Equal(t, "chatnexus", config.Chat.Database)
	require.Equal(t, "messages", config.Chat.MessagesCollection)
	require.Equal(t, "rooms", config.Chat.RoomsCollection)
	require.Equal(t, "users", config.Chat.UsersCollection)
	require.Equal(t, "ws", config.Chat.SocketRoute)
	require.Equal(t, 8080, config.Server.AppPort)
	require.Equal(t, 8081, config.Server.SocketPort)
	require.Equal(t, []string{"http://localhost:4200"}, config.Server.AllowedOrigins)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadConfig_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
