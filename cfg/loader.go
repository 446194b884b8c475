package cfg

// Loader cung cấp config cho toàn bộ ứng dụng.
// Mỗi môi trường có một implementation riêng (viper cho runtime, mock cho test).
type Loader interface {
	Load() (*Config, error)
}
