// Binary shellagent answers questions by letting an LLM run shell commands.
//
// Usage:
//
//	shellagent serve [--addr :8000]     HTTP API: POST /agent {"msg": "..."}
//	shellagent ask "<message>"          one exchange, reply on stdout
//	shellagent exec "<command>"         run a command, print the captured result
//
// Global flags:
//
//	--config    path to a YAML or TOML config file (optional)
//	--env-file  dotenv file loaded first (default .env, optional)
//	--verbose   debug logging
//
// The API key is read from GEMINI_API_KEY (provider google, the default) or
// OPENAI_API_KEY (provider openai), or from the variable named by api_key_env.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
