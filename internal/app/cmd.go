package app

// Command selects the process mode.
type Command string

const (
	// CommandServe starts the API server.
	CommandServe Command = "serve"
	// CommandWorker starts the alert delivery worker.
	CommandWorker Command = "worker"
	// CommandMigrate applies pending database migrations.
	CommandMigrate Command = "migrate"
	// CommandHealthcheck probes the running server. Used as the Docker
	// healthcheck in distroless images.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand resolves the subcommand from command-line arguments.
// Empty or unrecognized arguments fall back to CommandServe.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "worker":
		return CommandWorker
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
