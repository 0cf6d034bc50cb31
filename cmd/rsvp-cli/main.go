package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"ms-rsvp/internal/auth"
	"ms-rsvp/internal/client"
	"ms-rsvp/internal/config"
	"ms-rsvp/internal/imaging"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/rsvp/form"
	"os"
	"path/filepath"
	"strings"
	"time"

	imgx "github.com/disintegration/imaging"
	"github.com/joho/godotenv"
)

const usage = `usage: rsvp-cli [-url http://localhost:8080] [-token TOKEN] <command> [flags]

commands:
  submit        -name NAME -attendance yes|no [-guests N] [-email E] [-message M]
  list          print every response, newest first
  stats         print the aggregate counters (admin)
  export        write the CSV export (admin) [-out FILE]
  admin-token   issue an admin token from ADMIN_JWT_SECRET [-subject S] [-ttl ADMIN_TOKEN_TTL]
  crop          crop gallery photos for the site -in DIR -out DIR [-variant portrait|square]
`

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", envOr("RSVP_API_URL", "http://localhost:8080"), "RSVP API base URL")
	token := flag.String("token", os.Getenv("RSVP_ADMIN_TOKEN"), "admin bearer token")
	verbose := flag.Bool("v", false, "log requests")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.NewWriterLogger(nil)
	if *verbose {
		log = logger.NewWriterLogger(os.Stderr)
	}

	c := client.New(*baseURL, log)
	c.AdminToken = *token
	ctx := context.Background()

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "submit":
		err = runSubmit(ctx, c, args)
	case "list":
		err = runList(ctx, c)
	case "stats":
		err = runStats(ctx, c)
	case "export":
		err = runExport(ctx, c, args)
	case "admin-token":
		err = runAdminToken(args)
	case "crop":
		err = runCrop(ctx, log, args)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runSubmit(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	name := fs.String("name", "", "guest name")
	email := fs.String("email", "", "guest email")
	attendance := fs.String("attendance", "", "yes or no")
	guests := fs.Int("guests", 1, "number of guests")
	message := fs.String("message", "", "message for the couple")
	fs.Parse(args)

	f := form.New(c)
	f.SetFields(form.Fields{
		Name:       *name,
		Email:      *email,
		Attendance: models.Attendance(*attendance),
		Guests:     *guests,
		Message:    *message,
	})

	st, err := f.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n", f.Title(), f.Body())
	if s, ok := st.(form.Succeeded); ok {
		fmt.Printf("id: %s\n", s.ID)
		return nil
	}
	return fmt.Errorf("submission failed")
}

func runList(ctx context.Context, c *client.Client) error {
	responses, err := c.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range responses {
		fmt.Printf("%s  %-3s  %2d  %s <%s>  %s\n",
			r.CreatedAt.Format(time.DateTime), r.Attendance, r.Guests, r.Name, r.Email, r.Message)
	}
	fmt.Printf("%d responses\n", len(responses))
	return nil
}

func runStats(ctx context.Context, c *client.Client) error {
	stats, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func runExport(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "output file (defaults to the server's filename)")
	fs.Parse(args)

	filename, data, err := c.Export(ctx)
	if err != nil {
		return err
	}
	if *out != "" {
		filename = *out
	}
	if filename == "" {
		filename = "rsvp-responses.csv"
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", filename)
	return nil
}

func runAdminToken(args []string) error {
	cfg := config.MustLoad()

	fs := flag.NewFlagSet("admin-token", flag.ExitOnError)
	subject := fs.String("subject", "organiser", "token subject")
	ttl := fs.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	fs.Parse(args)

	token, err := auth.IssueAdminToken(cfg.Auth.JWTSecret, *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// runCrop writes a cropped JPEG into -out for every photo in -in.
func runCrop(ctx context.Context, log *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	in := fs.String("in", "", "directory of source photos")
	out := fs.String("out", "", "directory for the cropped photos")
	variantName := fs.String("variant", "", "portrait or square")
	fs.Parse(args)

	if *in == "" || *out == "" {
		return fmt.Errorf("crop needs -in and -out")
	}
	variant, err := imaging.ParseVariant(*variantName)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(*in)
	if err != nil {
		return err
	}
	var (
		names []string
		imgs  []image.Image
	)
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".jpg" && ext != ".jpeg" && ext != ".png") {
			continue
		}
		img, err := imgx.Open(filepath.Join(*in, e.Name()), imgx.AutoOrientation(true))
		if err != nil {
			log.Warn("IMAGING", fmt.Sprintf("Skipping %s: %v", e.Name(), err))
			continue
		}
		names = append(names, e.Name())
		imgs = append(imgs, img)
	}

	if err := os.MkdirAll(*out, 0755); err != nil {
		return err
	}
	cropped := imaging.NewProcessor(nil, log).CropBatch(ctx, imgs, variant)
	for i, img := range cropped {
		name := strings.TrimSuffix(names[i], filepath.Ext(names[i])) + ".jpg"
		if err := imgx.Save(img, filepath.Join(*out, name), imgx.JPEGQuality(90)); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	fmt.Printf("cropped %d photos into %s\n", len(cropped), *out)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
