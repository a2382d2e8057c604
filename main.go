package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bitbucket.org/parqueoasis/tambola/api"
	"bitbucket.org/parqueoasis/tambola/config"
	"bitbucket.org/parqueoasis/tambola/db"
	"bitbucket.org/parqueoasis/tambola/helpers"
	"bitbucket.org/parqueoasis/tambola/server"
	"bitbucket.org/parqueoasis/tambola/tambola"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	_ = godotenv.Load("dev.env")

	app := cli.NewApp()
	app.Name = "tambola"
	app.Usage = "Issues one Tambola ticket per device"
	app.Version = "1.00"
	app.Compiled = time.Now()
	app.Commands = []cli.Command{
		{
			Name:  "backend-up",
			Usage: "This command starts the backend service",
			Action: func(c *cli.Context) error {
				StartServer(api.GetRoutes())
				return nil
			},
		},
		{
			Name:  "migrate",
			Usage: "Creates the players table on the configured database",
			Action: func(c *cli.Context) error {
				return migrate()
			},
		},
		{
			Name:  "ticket",
			Usage: "Prints a freshly generated ticket",
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "seed", Usage: "seed for a reproducible ticket"},
				cli.BoolFlag{Name: "json", Usage: "print the ticket as JSON"},
				cli.BoolFlag{Name: "unsorted", Usage: "leave columns as generated"},
			},
			Action: func(c *cli.Context) error {
				return printTicket(c)
			},
		},
		{
			Name:      "hash-password",
			Usage:     "Prints the bcrypt hash to use as ADMIN_PASSWORD_HASH",
			ArgsUsage: "<password>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.NewExitError("expected exactly one password", 1)
				}
				hash, err := helpers.HashPassword(c.Args().First())
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, hash)
				return nil
			},
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func StartServer(routes []*server.Route) {
	ctx := server.GetAppContext()
	ctx.CreateSQLConnection()
	ctx.CreateSMTPConnection()
	ctx.CreateNewSessionS3()

	server.UpServer(routes, ctx)
}

func migrate() error {
	ctx := server.GetAppContext()
	conn, err := config.CreateConnectionSQL(ctx.Context.Config.SQL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}
	log.WithField("driver", conn.DriverName()).Info("schema is up to date")
	return nil
}

func printTicket(c *cli.Context) error {
	var opts []tambola.Option
	if c.Bool("unsorted") {
		opts = append(opts, tambola.WithUnsortedColumns())
	}

	var gen *tambola.Generator
	if c.IsSet("seed") {
		gen = tambola.NewSeededGenerator(c.Uint64("seed"), opts...)
	} else {
		gen = tambola.NewGenerator(nil, opts...)
	}
	ticket := gen.Generate()

	if c.Bool("json") {
		return json.NewEncoder(c.App.Writer).Encode(ticket)
	}
	_, err := fmt.Fprint(c.App.Writer, ticket.String())
	return err
}
