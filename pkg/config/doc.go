// Package config loads the YAML configuration shared by the tork CLI and
// its HTTP server.
//
// # Loading
//
// LoadConfig reads a file, applies defaults and validates it. Unknown keys
// are rejected:
//
//	cfg, err := config.LoadConfig("tork.yaml")
//
// LoadConfigWithEnvOverrides does the same and then applies environment
// variables named TORK_<SECTION>_<FIELD>, which take precedence over the
// file:
//
//	TORK_GOVERNANCE_DEFAULT_ACTION=deny
//	TORK_GOVERNANCE_REGIONS=au,gb
//	TORK_RECEIPTS_BACKEND=sqlite
//
// List values are comma separated. EnvKeys returns every supported name.
//
// # Example
//
//	governance:
//	  policy_version: "2.1.0"
//	  default_action: redact
//	  regions: [au]
//	  industry: healthcare
//	logging:
//	  level: info
//	  format: json
//	server:
//	  listen_address: 0.0.0.0:8443
//	  api_keys:
//	    - name: ci
//	      key: change-me
//	  tls:
//	    enabled: true
//	    cert_file: /etc/tork/tls.crt
//	    key_file: /etc/tork/tls.key
//	receipts:
//	  backend: sqlite
//	  sqlite:
//	    path: data/receipts.db
//	  retention:
//	    days: 30
//
// # Hot Reload
//
// Watcher reloads the file after changes settle and hands valid results
// to a callback. Holder publishes the latest configuration to concurrent
// readers.
package config
