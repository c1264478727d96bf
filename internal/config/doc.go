// Package config provides configuration parsing for domsync.
//
// The configuration is stored in domsync.json (or domsync.yaml) next to
// where the server runs. This package handles loading, saving, and
// validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 7070,
//	    "maxMessageBytes": 1048576,
//	    "allowedOrigins": ["https://app.example.com"],
//	    "shutdownTimeout": "10s"
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "domsync"
//	  },
//	  "snapshot": {
//	    "minify": true,
//	    "dir": "snapshots",
//	    "s3": {
//	      "bucket": "render-snapshots",
//	      "prefix": "staging/",
//	      "region": "eu-west-1"
//	    }
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
