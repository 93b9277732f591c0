package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/stratal/graphite/internal/config"
	"github.com/stratal/graphite/internal/server"
)

func main() {
	app := &cli.App{
		Name:  "graphite",
		Usage: "Knowledge-graph construction and hybrid retrieval for document chatbots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML config file",
				Value:   "config/config.toml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Rebuild the knowledge graph from the data directory",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data-dir",
						Aliases: []string{"d"},
						Usage:   "Directory of documents to extract from (overrides config)",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Ask questions interactively against the graph and vector index",
				Action: chatCommand,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to listen on",
						Value:   "8080",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads configuration and wires every service. Each command
// tears the result down with srv.Close when it finishes.
func setup(c *cli.Context) (*server.Server, *config.Config, *log.Logger, error) {
	level, err := log.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, ReportTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment as-is")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	srv, err := server.New(c.Context, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return srv, cfg, logger, nil
}

func buildCommand(c *cli.Context) error {
	srv, cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer srv.Close(c.Context)

	dir := c.String("data-dir")
	if dir == "" {
		dir = cfg.Paths.DataDir
	}

	if !srv.KG.BuildFromDirectory(c.Context, dir) {
		return fmt.Errorf("no documents found in %s", dir)
	}

	nodes, edges := srv.KG.Stats()
	logger.Info("build complete", "nodes", nodes, "edges", edges)
	return nil
}

func chatCommand(c *cli.Context) error {
	srv, _, _, err := setup(c)
	if err != nil {
		return err
	}
	defer srv.Close(c.Context)

	nodes, edges := srv.KG.Stats()
	fmt.Printf("Knowledge graph ready: %d nodes, %d edges. Type 'exit' to quit.\n", nodes, edges)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		res := srv.Hybrid.Query(c.Context, query)
		fmt.Printf("Bot: %s\n", res.Answer)
		if len(res.Sources) > 0 {
			fmt.Printf("(%d sources)\n", len(res.Sources))
		}
	}
	return scanner.Err()
}

func serveCommand(c *cli.Context) error {
	srv, _, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer srv.Close(c.Context)

	port := c.String("port")
	logger.Info("starting server", "port", port)
	return srv.SetupRouter().Run(":" + port)
}
