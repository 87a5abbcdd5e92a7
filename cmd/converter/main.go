package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"currency-converter-go/internal/config"
	"currency-converter-go/internal/converter"
	"currency-converter-go/internal/favorites"
	"currency-converter-go/internal/logger"
	"currency-converter-go/internal/rateapi"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("converter", pflag.ExitOnError)
	configDir := flags.String("config", "./configs", "directory containing config.yml")
	base := flags.String("base", "", "base currency code (defaults to the first listed currency)")
	target := flags.String("target", "", "target currency code (defaults to the first listed currency)")
	amount := flags.String("amount", "", "amount to convert")
	historical := flags.Bool("historical", false, "look up the historical rate for the selected pair")
	flags.String("date", "", "date for --historical, YYYY-MM-DD (overrides historical.date)")
	flags.String("favorites-url", "", "favorites API base URL (overrides favorites.base_url)")
	save := flags.Bool("save", false, "save the selected pair as a favorite")
	selectFav := flags.Int("select", -1, "select the favorite at this index and convert")
	_ = flags.Parse(os.Args[1:])

	v := config.New(*configDir)
	_ = v.BindPFlag("historical.date", flags.Lookup("date"))
	_ = v.BindPFlag("favorites.base_url", flags.Lookup("favorites-url"))
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger, "converter")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := converter.NewSession(
		log,
		rateapi.NewClient(&cfg.RateAPI, log, nil),
		favorites.NewClient(cfg.Favorites.BaseURL, log),
		cfg.Historical.Date,
	)
	session.Start(ctx)

	if *base != "" {
		session.SetBase(ctx, *base)
	}
	if *target != "" {
		session.SetTarget(ctx, *target)
	}
	if *amount != "" {
		session.SetAmount(ctx, *amount)
	}
	if *selectFav >= 0 {
		if _, err := session.SelectFavorite(ctx, *selectFav); err != nil {
			log.Error("Failed to select favorite", zap.Error(err))
		}
	}
	if *historical {
		session.FetchHistoricalDefault(ctx)
	}
	if *save {
		session.SaveFavorite(ctx)
	}

	printState(session.Snapshot())
}

func printState(st converter.State) {
	fmt.Printf("Currencies:  %d available\n", len(st.BaseOptions))
	fmt.Printf("Selection:   %s -> %s, amount %q\n", st.BaseCurrency, st.TargetCurrency, st.Amount)
	if st.Conversion != "" {
		fmt.Printf("Converted:   %s\n", st.Conversion)
	}
	if st.Historical != "" {
		fmt.Printf("Historical:  %s\n", st.Historical)
	}
	fmt.Println("Favorites:")
	for i, fav := range st.Favorites {
		fmt.Printf("  [%d] %s\n", i, fav.Label)
	}
}
