package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (yl *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "github-harvester",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "github_harvester",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// GithubApi
		GithubApi: GithubApi{
			AccessToken:       "",
			SearchApiUrl:      "https://api.github.com/search/code",
			RawContentUrl:     "https://raw.githubusercontent.com",
			LanguageHint:      "JSON",
			RequestsPerSecond: 8,
			ThrottleDelay:     200,
			PageSpacingSec:    3,
			ResetBufferSec:    2,
		},

		// Kafka
		Kafka: Kafka{
			Brokers: []string{"127.0.0.1:9092"},
			Producer: KafkaProducer{
				TopicFile: "harvested-files",
			},
		},

		// Harvester
		Harvester: Harvester{
			Version:        "v1",
			TargetFilename: "package.json",
			StartPage:      0,
			UniqueContent:  false,
			UiPort:         8080,
		},
	}, nil
}
