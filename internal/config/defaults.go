package config

// DefaultConfigYAML returns a commented default config file.
func DefaultConfigYAML() string {
	return `# samsite configuration
# Generated by: samsite init-config

config:
  # Only watch World Assembly members. Non-members cannot be banned faster
  # than they can leave, so this is usually what you want.
  wa_only: true

  # Never target the delegate or regional officers.
  ignore_ros: true

  # Target nations that are on no list. When false only blacklisted
  # nations are targeted.
  target_bogeys: true

  # Stop everything once the region updates.
  stop_on_update: true

  # Residents present at startup are friendly unless blacklisted.
  ignore_residents: true

  # Milliseconds between API requests. Values below 600 are raised to 600.
  poll_speed: 650

  # Up to this many extra milliseconds are added to each poll delay.
  jitter: 0

  # Act on this region instead of the one the RO nation lives in.
  region_override: ""

  # Hash-chained record of every engagement. Empty disables it.
  # audit_log: ~/.samsite/engagements.jsonl

  # How engagements are authorized: "keyboard" (space bar) or "file"
  # (each write to trigger_file; see "samsite fire").
  trigger: keyboard
  # trigger_file: ~/.samsite/trigger

whitelist:
  nations: []
  regions: []

blacklist:
  nations: []
  regions: []
`
}
