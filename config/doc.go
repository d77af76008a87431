/*
Package config loads recordengine settings.

Values are layered, later layers winning:

 1. DefaultConfig
 2. a YAML file passed to Load
 3. a .env file in the working directory (godotenv, never overriding
    variables already set)
 4. RECORDENGINE_* and AWS_* environment variables

Example file:

	strategy: indexed
	cache:
	  idle_ttl: 5m
	tokens:
	  backend: sqlite
	  ttl: 30m
	sqlite:
	  path: /var/lib/recordengine/data.db
	log:
	  level: debug
	  format: json
*/
package config
