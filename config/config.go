package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	GalleryID      string
	GalleryBaseURL string

	CrawlPages     int
	CrawlDelayMs   int
	MaxPosts       int
	RecommendOnly  bool
	DownloadImages bool
	SaveToDB       bool

	ImageDir      string
	ImageKeepDays int

	MongoURI    string
	MongoDBName string

	ChromeBin     string
	DebugDir      string
	CrawlSchedule string
	Verbose       bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		GalleryID:      getEnv("GALLERY_ID", "us_stocks"),
		GalleryBaseURL: getEnv("GALLERY_BASE_URL", "https://gall.dcinside.com"),

		CrawlPages:     getEnvInt("CRAWL_PAGES", 3),
		CrawlDelayMs:   getEnvInt("CRAWL_DELAY_MS", 2000),
		MaxPosts:       getEnvInt("MAX_POSTS", 0),
		RecommendOnly:  getEnvBool("RECOMMEND_ONLY", true),
		DownloadImages: getEnvBool("DOWNLOAD_IMAGES", true),
		SaveToDB:       getEnvBool("SAVE_TO_DB", true),

		ImageDir:      getEnv("IMAGE_DIR", "./output/images"),
		ImageKeepDays: getEnvInt("IMAGE_KEEP_DAYS", 7),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/"),
		MongoDBName: getEnv("MONGO_DB_NAME", "shorts_factory"),

		ChromeBin:     getEnv("CHROME_BIN", ""),
		DebugDir:      getEnv("DEBUG_DIR", ""),
		CrawlSchedule: getEnv("CRAWL_SCHEDULE", ""),
		Verbose:       getEnvBool("DEBUG", false),
	}
}

// ListURL returns the gallery listing endpoint.
func (c *Config) ListURL() string {
	return c.GalleryBaseURL + "/mgallery/board/lists"
}

// ViewURL returns the detail view URL for a single post. It is both the
// page fetched for extraction and the Referer sent with image requests.
func (c *Config) ViewURL(postID string) string {
	return c.GalleryBaseURL + "/mgallery/board/view/?id=" + c.GalleryID + "&no=" + postID
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
