// Package config loads keygraph settings.
//
// # Sources
//
// Settings come from three places, later ones winning:
//
//  1. [Default], the built-in presentation timings
//     (800ms between reveals, 60ms float tick, 10s settle timeout);
//  2. a TOML file, usually keygraph.toml, read with [Load];
//  3. the environment: [LoadEnv] reads .env files with godotenv and
//     applies OPENAI_API_KEY, KEYGRAPH_ASSISTANT_ID and KEYGRAPH_ADDR.
//
// # File format
//
//	[reveal]
//	interval = "800ms"
//
//	[float]
//	tick = "60ms"
//
//	[session]
//	settle_timeout = "10s"
//
//	[layout]
//	engine = "fdp"
//	quality = "proof"
//	animate = true
//	animation_duration = "1s"
//	fit = true
//	padding = 50.0
//
//	[elements]
//	image_prefix = "/images/"
//	duplicate_edges = "overwrite"
//
//	[server]
//	addr = ":5000"
//	allowed_origins = ["http://localhost:3000"]
//
//	[assistant]
//	assistant_id = "asst_..."
//	poll_interval = "5s"
//
// Unknown keys are reported by [Load] but do not fail it.
package config
