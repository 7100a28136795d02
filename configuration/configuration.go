package configuration

type Config struct {
	HttpAddr string `usage:"HTTP address"`
	Dir      string `usage:"data directory"`
	Statics  string `usage:"statics directory, empty serves the embedded site"`

	ApiKey      string `usage:"api key, empty disables authentication"`
	ApiSecret   string `usage:"api secret"`
	RequireAuth bool   `usage:"refuse to start without credentials"`

	Tls Tls

	EnableCompression bool `usage:"gzip responses"`

	Version    bool `usage:"show version and exit"`
	ShowBanner bool `usage:"show big banner"`
	ShowConfig bool `usage:"print config"`
}

type Tls struct {
	Enabled    bool   `usage:"listen with TLS"`
	SelfSigned bool   `usage:"generate an in-memory self-signed certificate"`
	CertFile   string `usage:"certificate file (PEM)"`
	KeyFile    string `usage:"private key file (PEM)"`
	Domain     string `usage:"domain for the self-signed certificate"`
}

func Default() Config {
	return Config{
		HttpAddr: ":8080",
		Dir:      "data",
		Tls: Tls{
			Domain: "localhost",
		},
		ShowBanner: true,
	}
}
