package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	GithubApi struct {
		AccessToken       string
		SearchApiUrl      string
		RawContentUrl     string
		LanguageHint      string
		RequestsPerSecond int
		ThrottleDelay     int // ms, thời gian chờ giữa hai lần hỏi limiter
		PageSpacingSec    int // khoảng cách tối thiểu giữa hai lần gọi search
		ResetBufferSec    int // đệm an toàn cộng thêm sau mốc reset quota
	}

	Kafka struct {
		Brokers  []string
		Producer KafkaProducer
	}

	KafkaProducer struct {
		TopicFile string
	}

	Harvester struct {
		Version        string
		TargetFilename string
		StartPage      int
		UniqueContent  bool
		UiPort         int
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	GithubApi GithubApi
	Kafka     Kafka
	Harvester Harvester
}
