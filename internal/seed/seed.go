package seed

import (
	"context"
	"fmt"

	"resonate/internal/middleware"
	"resonate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options controls how much demo data Seed creates.
type Options struct {
	NumUsers       int
	PostsPerUser   int
	FollowsPerUser int
	LikesPerPost   int
	// MaxDays spreads post timestamps over this many days back from now.
	MaxDays     int
	ShouldClean bool
	// SkipBcrypt stores the plain password; only for tests.
	SkipBcrypt bool
	RandSeed   int64
	Mix        Distribution
}

// Distribution weighs which catalog entity, if any, a seeded post references.
type Distribution struct {
	Text   int
	Song   int
	Album  int
	Artist int
}

var defaultDistribution = Distribution{Text: 4, Song: 3, Album: 2, Artist: 1}

// Summary reports what Seed created.
type Summary struct {
	Users     int
	Posts     int
	Follows   int
	Likes     int
	Comments  int
	Favorites int
}

type demoSong struct {
	Title  string
	Artist string
	Album  string
}

var demoSongs = []demoSong{
	{"So What", "Miles Davis", "Kind of Blue"},
	{"Naima", "John Coltrane", "Giant Steps"},
	{"Paranoid Android", "Radiohead", "OK Computer"},
	{"Windowlicker", "Aphex Twin", "Windowlicker"},
	{"Alright", "Kendrick Lamar", "To Pimp a Butterfly"},
	{"Teardrop", "Massive Attack", "Mezzanine"},
	{"Pink Moon", "Nick Drake", "Pink Moon"},
	{"Master of Puppets", "Metallica", "Master of Puppets"},
	{"A Change Is Gonna Come", "Sam Cooke", "Ain't That Good News"},
	{"An Ending (Ascent)", "Brian Eno", "Apollo: Atmospheres and Soundtracks"},
}

// computeCounts splits n posts across the distribution weights. Rounding
// remainders go to text posts so the parts always sum to n.
func computeCounts(n int, d Distribution) (text, song, album, artist int) {
	total := d.Text + d.Song + d.Album + d.Artist
	if n <= 0 || total <= 0 {
		return n, 0, 0, 0
	}
	song = n * d.Song / total
	album = n * d.Album / total
	artist = n * d.Artist / total
	text = n - song - album - artist
	return text, song, album, artist
}

// Seed populates db with users, catalog entries and the social mesh between them.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	opts = withDefaults(opts)
	db = db.WithContext(ctx)
	log := middleware.Logger

	if opts.ShouldClean {
		log.Info("Cleaning existing data")
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	summary := &Summary{}

	log.Info("Seeding catalog", "songs", len(demoSongs))
	songs, albums, artists, err := seedCatalog(db)
	if err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Info("Creating users", "count", opts.NumUsers)
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)

	log.Info("Creating follows", "per_user", opts.FollowsPerUser)
	for i, u := range users {
		for j := 1; j <= opts.FollowsPerUser && j < len(users); j++ {
			// Neighbor offsets keep the mesh connected without duplicate edges.
			if err := f.CreateFollow(u, users[(i+j)%len(users)]); err != nil {
				return nil, fmt.Errorf("failed to create follow: %w", err)
			}
			summary.Follows++
		}
	}

	log.Info("Creating posts", "per_user", opts.PostsPerUser)
	var posts []*models.Post
	for _, u := range users {
		text, song, album, artist := computeCounts(opts.PostsPerUser, opts.Mix)
		plan := []struct {
			n   int
			ref func(*models.Post)
		}{
			{text, nil},
			{song, func(p *models.Post) { p.SongID = &songs[f.pick(len(songs))].ID }},
			{album, func(p *models.Post) { p.AlbumID = &albums[f.pick(len(albums))].ID }},
			{artist, func(p *models.Post) { p.ArtistID = &artists[f.pick(len(artists))].ID }},
		}
		for _, step := range plan {
			for k := 0; k < step.n; k++ {
				var overrides []func(*models.Post)
				if step.ref != nil {
					overrides = append(overrides, step.ref)
				}
				p, err := f.CreatePost(u, overrides...)
				if err != nil {
					return nil, fmt.Errorf("failed to create post: %w", err)
				}
				posts = append(posts, p)
			}
		}
	}
	summary.Posts = len(posts)

	log.Info("Creating likes and comments", "posts", len(posts))
	for _, p := range posts {
		likes := f.faker.Number(0, opts.LikesPerPost)
		for k := 0; k < likes; k++ {
			if err := f.CreateLike(users[f.pick(len(users))], p); err != nil {
				return nil, fmt.Errorf("failed to create like: %w", err)
			}
		}
		if f.faker.Number(0, 2) == 0 {
			if _, err := f.CreateComment(users[f.pick(len(users))], p); err != nil {
				return nil, fmt.Errorf("failed to create comment: %w", err)
			}
			summary.Comments++
		}
	}
	var likeCount int64
	if err := db.Model(&models.Like{}).Count(&likeCount).Error; err != nil {
		return nil, err
	}
	summary.Likes = int(likeCount)

	log.Info("Creating favorites")
	for _, u := range users {
		edges := []interface{}{
			&models.FavoriteSong{UserID: u.ID, SongID: songs[f.pick(len(songs))].ID},
			&models.FavoriteAlbum{UserID: u.ID, AlbumID: albums[f.pick(len(albums))].ID},
			&models.FavoriteArtist{UserID: u.ID, ArtistID: artists[f.pick(len(artists))].ID},
		}
		for _, edge := range edges {
			res := db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
			if res.Error != nil {
				return nil, fmt.Errorf("failed to create favorite: %w", res.Error)
			}
			summary.Favorites += int(res.RowsAffected)
		}
	}

	log.Info("Seeding complete",
		"users", summary.Users,
		"posts", summary.Posts,
		"follows", summary.Follows,
		"likes", summary.Likes,
		"comments", summary.Comments,
		"favorites", summary.Favorites,
	)
	return summary, nil
}

func withDefaults(opts Options) Options {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.PostsPerUser < 0 {
		opts.PostsPerUser = 0
	}
	if opts.FollowsPerUser < 0 {
		opts.FollowsPerUser = 0
	}
	if opts.LikesPerPost < 0 {
		opts.LikesPerPost = 0
	}
	if opts.Mix == (Distribution{}) {
		opts.Mix = defaultDistribution
	}
	return opts
}

// seedCatalog upserts the demo catalog and returns the stored rows.
func seedCatalog(db *gorm.DB) ([]models.Song, []models.Album, []models.Artist, error) {
	for _, s := range demoSongs {
		song := models.Song{Title: s.Title, Artist: s.Artist, Album: s.Album}
		if err := db.Where(models.Song{Title: s.Title, Artist: s.Artist}).FirstOrCreate(&song).Error; err != nil {
			return nil, nil, nil, err
		}
		album := models.Album{Title: s.Album, Artist: s.Artist}
		if err := db.Where(models.Album{Title: s.Album, Artist: s.Artist}).FirstOrCreate(&album).Error; err != nil {
			return nil, nil, nil, err
		}
		artist := models.Artist{Name: s.Artist}
		if err := db.Where(models.Artist{Name: s.Artist}).FirstOrCreate(&artist).Error; err != nil {
			return nil, nil, nil, err
		}
	}

	var songs []models.Song
	var albums []models.Album
	var artists []models.Artist
	if err := db.Order("id").Find(&songs).Error; err != nil {
		return nil, nil, nil, err
	}
	if err := db.Order("id").Find(&albums).Error; err != nil {
		return nil, nil, nil, err
	}
	if err := db.Order("id").Find(&artists).Error; err != nil {
		return nil, nil, nil, err
	}
	return songs, albums, artists, nil
}

// clearData removes rows child tables first so foreign keys never block a delete.
func clearData(db *gorm.DB) error {
	tables := []interface{}{
		&models.Comment{},
		&models.Like{},
		&models.FavoriteSong{},
		&models.FavoriteAlbum{},
		&models.FavoriteArtist{},
		&models.Post{},
		&models.Follow{},
		&models.Profile{},
		&models.User{},
		&models.Song{},
		&models.Album{},
		&models.Artist{},
	}
	session := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, table := range tables {
		if err := session.Unscoped().Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
