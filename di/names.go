package di

// ComponentNames defines the keys under which the bootstrap layer registers
// its shared instances.
type ComponentNames struct {
	// Configuration
	Viper         string
	Properties    string
	ServiceConfig string
	Logger        string

	// Lifecycle
	Bootstrapper string
	Container    string

	// Infrastructure
	HTTPServer     string
	ConfigWatcher  string
	Telemetry      string
	DownloadClient string
}

// Names contains all keys used by the bootstrap layer.
var Names = ComponentNames{
	Viper:         "viper",
	Properties:    "halo_properties",
	ServiceConfig: "service_config",
	Logger:        "logger",

	Bootstrapper: "bootstrapper",
	Container:    "container",

	HTTPServer:     "http_server",
	ConfigWatcher:  "config_watcher",
	Telemetry:      "telemetry",
	DownloadClient: "download_client",
}
