package configuration

import (
	"encoding/json"
	"os"
)

type ChatConfig struct {
	Uri                string `json:"uri"`
	Database           string `json:"database"`
	MessagesCollection string `json:"messagesCollection"`
	RoomsCollection    string `json:"roomsCollection"`
	UsersCollection    string `json:"usersCollection"`
	SocketRoute        string `json:"socketRoute"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type Config struct {
	Chat   ChatConfig   `json:"mongo"`
	Server ServerConfig `json:"server"`
}

func LoadConfig(configPath string) (*Config, error) {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
