package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tradecontrol/src/client"
	"tradecontrol/src/database"
	"tradecontrol/src/logging"
	"tradecontrol/src/orders"
	"tradecontrol/src/security"
	"tradecontrol/src/server"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "tradecontrol"
	app.Usage = "Operator commands for the trading control plane"
	app.Version = Version
	app.Before = func(_ *cli.Context) error {
		logging.Setup(logging.GetConfig())
		return nil
	}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "api-url",
			Usage:  "control API base URL",
			EnvVar: "CONTROL_API_URL",
		},
		cli.StringFlag{
			Name:   "user, u",
			Usage:  "user id sent in the identity header",
			EnvVar: "CONTROL_USER_ID",
		},
	}

	app.Commands = []cli.Command{
		serveCMD,
		migrateCMD,
		keygenCMD,
		statusCMD,
		engineCMD,
		accountCMD,
		orderCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the control API",
		Action:      serveAction,
		Description: `Connect the database, run migrations and serve the control API`,
	}
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "apply schema and data migrations",
		Action:      migrateAction,
		Description: `Run AutoMigrate and pending data migrations against DB_DRIVER`,
	}
	keygenCMD = cli.Command{
		Name:        "keygen",
		Usage:       "print a new EXCHANGE_CREDENTIALS_KEY",
		Action:      keygenAction,
		Description: `Generate a random base64 key for sealing exchange credentials`,
	}
	statusCMD = cli.Command{
		Name:   "status",
		Usage:  "show account, engine and asset state",
		Action: statusAction,
	}
	engineCMD = cli.Command{
		Name:  "engine",
		Usage: "start or stop the trading engine",
		Subcommands: []cli.Command{
			{Name: "start", Usage: "start the engine", Action: engineStartAction},
			{Name: "stop", Usage: "stop the engine", Action: engineStopAction},
		},
	}
	accountCMD = cli.Command{
		Name:  "account",
		Usage: "account activation",
		Subcommands: []cli.Command{
			{Name: "toggle", Usage: "flip the account active flag", Action: accountToggleAction},
		},
	}
	orderCMD = cli.Command{
		Name:  "order",
		Usage: "manual orders",
		Subcommands: []cli.Command{
			{
				Name:      "submit",
				Usage:     "queue a manual order",
				ArgsUsage: "--symbol BTC --side BUY --amount 100",
				Action:    orderSubmitAction,
				Flags: []cli.Flag{
					cli.StringFlag{Name: "symbol", Usage: "asset symbol"},
					cli.StringFlag{Name: "type", Value: "MARKET", Usage: "MARKET or LIMIT"},
					cli.StringFlag{Name: "side", Usage: "BUY or SELL"},
					cli.StringFlag{Name: "amount", Usage: "amount in USDT"},
				},
			},
		},
	}
)

func serveAction(_ *cli.Context) error {
	logrus.WithField("cmd", "serve").Info("Starting control API")
	return server.Run()
}

func migrateAction(_ *cli.Context) error {
	log := logrus.WithField("cmd", "migrate")
	if err := database.InitMainDB(); err != nil {
		log.WithError(err).Error("Migration failed")
		return err
	}
	log.Info("Migrations applied")
	return nil
}

func keygenAction(_ *cli.Context) error {
	key, err := security.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}

func statusAction(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()

	snap, err := newClient(c).Status(ctx)
	if err != nil {
		return err
	}
	return printJSON(snap)
}

func engineStartAction(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()

	engine, err := newClient(c).StartEngine(ctx)
	if err != nil {
		return err
	}
	return printJSON(engine)
}

func engineStopAction(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()

	engine, err := newClient(c).StopEngine(ctx)
	if err != nil {
		return err
	}
	return printJSON(engine)
}

func accountToggleAction(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()

	active, err := newClient(c).ToggleAccount(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]bool{"account_active": active})
}

func orderSubmitAction(c *cli.Context) error {
	req := orders.Request{
		Symbol:    c.String("symbol"),
		OrderType: c.String("type"),
		OrderSide: c.String("side"),
	}
	if raw := c.String("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid --amount %q: %w", raw, err)
		}
		req.Amount = decimal.NewNullDecimal(amount)
	}

	ctx, cancel := commandContext()
	defer cancel()

	id, err := newClient(c).SubmitOrder(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"id": id, "status": "pending"})
}

func newClient(c *cli.Context) *client.Client {
	cfg := client.GetConfig()
	if v := c.GlobalString("api-url"); v != "" {
		cfg.BaseURL = v
	}
	if v := c.GlobalString("user"); v != "" {
		cfg.UserID = v
	}
	return client.New(cfg)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
