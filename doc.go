// Package natan loads hierarchical configuration files.
//
// A configuration file is merged with the files that overlap it: files of
// the same name in every ancestor directory, local override files next to
// each of them, and overrides declared in .natan settings files. The merged
// tree may reference itself and compute values with placeholders:
//
//	{
//	  "port": 8080,
//	  "url": "http://localhost:k{ port }",
//	  "timeout": "t{ 1 minute and 30 seconds }",
//	  "data": "p{ ./data }",
//	  "id": "r{ ^[a-z]+-\\d+$ }",
//	  "user": "f{ env.USER }"
//	}
//
// Load returns the resolved tree:
//
//	cfg, err := natan.Load("config/app.config", natan.WithRootMarkers(".git"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	port, _ := cfg.Get("port")
//
// JSON (with comments), YAML and TOML files are supported; the parser is
// chosen by extension and ".config" files are read as JSON.
package natan
