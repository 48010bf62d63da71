package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mixview/config"
	"mixview/models"
	"mixview/providers/applemusic"
	"mixview/providers/discogs"
	"mixview/providers/lastfm"
	"mixview/providers/spotify"
	"mixview/services"
)

var (
	entitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mixview_entities_created_total",
		Help: "Anzahl neu angelegter Entitäten nach Typ",
	}, []string{"kind"})

	relationshipRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixview_relationship_refreshes_total",
		Help: "Anzahl durchgeführter Relationship-Refreshes",
	})
)

// metricsStore zählt Entity-Erzeugungen für Prometheus mit.
type metricsStore struct {
	services.EntityStore
}

func (m *metricsStore) CreateArtist(artist *models.Artist) error {
	err := m.EntityStore.CreateArtist(artist)
	if err == nil {
		entitiesCreated.WithLabelValues("artist").Inc()
	}
	return err
}

func (m *metricsStore) CreateAlbum(album *models.Album) error {
	err := m.EntityStore.CreateAlbum(album)
	if err == nil {
		entitiesCreated.WithLabelValues("album").Inc()
	}
	return err
}

func (m *metricsStore) CreateTrack(track *models.Track) error {
	err := m.EntityStore.CreateTrack(track)
	if err == nil {
		entitiesCreated.WithLabelValues("track").Inc()
	}
	return err
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Fehler beim Laden der Konfiguration", zap.Error(err))
	}

	// TranslateError sorgt dafür, dass Unique-Verletzungen als
	// gorm.ErrDuplicatedKey ankommen (konkurrierendes Anlegen).
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Fatal("Fehler beim Verbinden mit der Datenbank", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Artist{},
		&models.Album{},
		&models.Track{},
		&models.ArtistSimilarity{},
		&models.AlbumSimilarity{},
		&models.TrackSimilarity{},
		&models.Filter{},
	); err != nil {
		logger.Fatal("Fehler bei der Datenbank-Migration", zap.Error(err))
	}

	store := &metricsStore{EntityStore: services.NewGormStore(db)}

	spotifyProvider := spotify.NewFetcher(cfg, logger)
	lastfmProvider := lastfm.NewFetcher(cfg, logger)
	discogsProvider := discogs.NewFetcher(cfg, logger)
	appleMusic := applemusic.NewLinkService()

	resolver := services.NewResolver(cfg, store, logger,
		spotifyProvider, lastfmProvider, discogsProvider, appleMusic)
	engine := services.NewRelationshipEngine(cfg, store, logger)
	aggregator := services.NewAggregationService(cfg, store, resolver, engine, logger,
		spotifyProvider, lastfmProvider, discogsProvider)

	logger.Info("Verfügbare Dienste", zap.Strings("services", aggregator.AvailableServices()))

	// Nächtlicher Refresh der gecachten Beziehungen
	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSchedule, func() {
		refreshAllRelationships(cfg, store, engine, logger)
	}); err != nil {
		logger.Fatal("Fehler beim Registrieren des Cron-Jobs", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	router := gin.Default()
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", apiKeyAuthMiddleware(cfg, logger))
	setupAggregationRoutes(api, aggregator)
	setupEntityRoutes(api, store)
	setupRefreshRoutes(api, engine)
	setupFilterRoutes(api, db)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("Server startet", zap.String("port", cfg.HTTPPort))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Serverfehler", zap.Error(err))
	}
}

// apiKeyAuthMiddleware prüft den X-API-Key Header. Ohne konfigurierten
// Secret-Key ist die API offen (lokale Entwicklung).
func apiKeyAuthMiddleware(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if cfg.APISecretKey == "" {
			ctx.Next()
			return
		}
		if ctx.GetHeader("X-API-Key") != cfg.APISecretKey {
			logger.Warn("Ungültiger API-Key", zap.String("ip", ctx.ClientIP()))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		ctx.Next()
	}
}

// userIDFrom liest die Benutzer-ID aus dem X-User-ID Header; 0 = anonym.
func userIDFrom(ctx *gin.Context) uint {
	id, err := strconv.ParseUint(ctx.GetHeader("X-User-ID"), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// topNFrom liest den top_n Query-Parameter (Default 10, Maximum 50).
func topNFrom(ctx *gin.Context) int {
	topN, err := strconv.Atoi(ctx.DefaultQuery("top_n", "10"))
	if err != nil || topN < 1 {
		return 10
	}
	if topN > 50 {
		return 50
	}
	return topN
}

func setupAggregationRoutes(api *gin.RouterGroup, aggregator *services.AggregationService) {
	api.GET("/related-artists", func(ctx *gin.Context) {
		result, err := aggregator.GetRelatedArtists(ctx.Request.Context(),
			ctx.Query("name"), userIDFrom(ctx), topNFrom(ctx))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if result == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "artist not found"})
			return
		}
		ctx.JSON(http.StatusOK, result)
	})

	api.GET("/related-albums", func(ctx *gin.Context) {
		result, err := aggregator.GetRelatedAlbums(ctx.Request.Context(),
			ctx.Query("title"), ctx.Query("artist"), userIDFrom(ctx), topNFrom(ctx))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if result == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
			return
		}
		ctx.JSON(http.StatusOK, result)
	})

	api.GET("/related-tracks", func(ctx *gin.Context) {
		result, err := aggregator.GetRelatedTracks(ctx.Request.Context(),
			ctx.Query("title"), ctx.Query("artist"), userIDFrom(ctx), topNFrom(ctx))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if result == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		ctx.JSON(http.StatusOK, result)
	})

	api.GET("/combined", func(ctx *gin.Context) {
		result, err := aggregator.GetCombinedNodes(ctx.Request.Context(),
			ctx.Query("artist"), ctx.Query("album"), ctx.Query("track"),
			userIDFrom(ctx), topNFrom(ctx))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, result)
	})

	api.GET("/services", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"services": aggregator.AvailableServices()})
	})

	api.GET("/stats", func(ctx *gin.Context) {
		stats, err := aggregator.GetStatistics(userIDFrom(ctx))
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
			return
		}
		ctx.JSON(http.StatusOK, stats)
	})
}

func setupEntityRoutes(api *gin.RouterGroup, store services.EntityStore) {
	api.GET("/artists/:id", func(ctx *gin.Context) {
		id := pathID(ctx)
		artist, err := store.ArtistByID(id)
		if err != nil || artist == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "artist not found"})
			return
		}
		ctx.JSON(http.StatusOK, artist)
	})

	api.GET("/albums/:id", func(ctx *gin.Context) {
		id := pathID(ctx)
		album, err := store.AlbumByID(id)
		if err != nil || album == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
			return
		}
		ctx.JSON(http.StatusOK, album)
	})

	api.GET("/tracks/:id", func(ctx *gin.Context) {
		id := pathID(ctx)
		track, err := store.TrackByID(id)
		if err != nil || track == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		ctx.JSON(http.StatusOK, track)
	})

	api.GET("/artists/:id/albums", func(ctx *gin.Context) {
		albums, err := store.AlbumsByArtist(pathID(ctx))
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load albums"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"albums": albums})
	})

	api.GET("/artists/:id/tracks", func(ctx *gin.Context) {
		tracks, err := store.TracksByArtist(pathID(ctx))
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tracks"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"tracks": tracks})
	})
}

func setupRefreshRoutes(api *gin.RouterGroup, engine *services.RelationshipEngine) {
	api.POST("/refresh/artists/:id", func(ctx *gin.Context) {
		count := engine.RefreshArtist(pathID(ctx))
		relationshipRefreshes.Inc()
		ctx.JSON(http.StatusOK, gin.H{"refreshed": count})
	})

	api.POST("/refresh/albums/:id", func(ctx *gin.Context) {
		count := engine.RefreshAlbum(pathID(ctx))
		relationshipRefreshes.Inc()
		ctx.JSON(http.StatusOK, gin.H{"refreshed": count})
	})

	api.POST("/refresh/tracks/:id", func(ctx *gin.Context) {
		count := engine.RefreshTrack(pathID(ctx))
		relationshipRefreshes.Inc()
		ctx.JSON(http.StatusOK, gin.H{"refreshed": count})
	})
}

func setupFilterRoutes(api *gin.RouterGroup, db *gorm.DB) {
	api.GET("/filters", func(ctx *gin.Context) {
		var filters []models.Filter
		if err := db.Where("user_id = ?", userIDFrom(ctx)).Find(&filters).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load filters"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"filters": filters})
	})

	api.POST("/filters", func(ctx *gin.Context) {
		var payload struct {
			FilterType string `json:"filter_type" binding:"required"`
			Value      string `json:"value" binding:"required"`
		}
		if err := ctx.ShouldBindJSON(&payload); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		switch payload.FilterType {
		case models.FilterExcludeArtist, models.FilterExcludeAlbum,
			models.FilterExcludeTrack, models.FilterExcludeGenre,
			models.FilterMinDuration:
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown filter type"})
			return
		}
		filter := models.Filter{
			UserID:     userIDFrom(ctx),
			FilterType: payload.FilterType,
			Value:      payload.Value,
		}
		if err := db.Create(&filter).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create filter"})
			return
		}
		ctx.JSON(http.StatusCreated, filter)
	})

	api.DELETE("/filters/:id", func(ctx *gin.Context) {
		result := db.Where("id = ? AND user_id = ?", pathID(ctx), userIDFrom(ctx)).
			Delete(&models.Filter{})
		if result.Error != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete filter"})
			return
		}
		if result.RowsAffected == 0 {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "filter not found"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

func pathID(ctx *gin.Context) uint {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// refreshAllRelationships berechnet die Kanten der jüngsten Entitäten neu.
// Die Fenster entsprechen den Fuzzy-Scan-Limits, damit der Job beschränkt bleibt.
func refreshAllRelationships(cfg *config.Config, store services.EntityStore,
	engine *services.RelationshipEngine, logger *zap.Logger) {
	start := time.Now()

	refreshed := 0
	artists, err := store.RecentArtists(cfg.FuzzyScanArtists)
	if err != nil {
		logger.Error("Refresh: Laden der Künstler fehlgeschlagen", zap.Error(err))
	}
	for i := range artists {
		engine.RefreshArtist(artists[i].ID)
		refreshed++
	}

	albums, err := store.RecentAlbums(cfg.FuzzyScanAlbums)
	if err != nil {
		logger.Error("Refresh: Laden der Alben fehlgeschlagen", zap.Error(err))
	}
	for i := range albums {
		engine.RefreshAlbum(albums[i].ID)
		refreshed++
	}

	tracks, err := store.RecentTracks(cfg.FuzzyScanTracks)
	if err != nil {
		logger.Error("Refresh: Laden der Tracks fehlgeschlagen", zap.Error(err))
	}
	for i := range tracks {
		engine.RefreshTrack(tracks[i].ID)
		refreshed++
	}

	relationshipRefreshes.Add(float64(refreshed))
	logger.Info("Relationship-Refresh abgeschlossen",
		zap.Int("entities", refreshed),
		zap.Duration("duration", time.Since(start)))
}
