package service

import (
	"context"
	"strings"

	"resonate/internal/cache"
	"resonate/internal/models"
	"resonate/internal/repository"
	"resonate/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=30,username"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FavoriteGenre   string `json:"favorite_genre" validate:"max=64"`
}

// UpdateProfileInput is a partial update; nil fields are left untouched.
type UpdateProfileInput struct {
	Email          *string `json:"email" validate:"omitempty,email,max=120"`
	Bio            *string `json:"bio" validate:"omitempty,max=1000"`
	FavoriteGenre  *string `json:"favorite_genre" validate:"omitempty,max=64"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,max=255"`
	SOTDTitle      *string `json:"sotd_title" validate:"omitempty,max=200"`
	SOTDArtist     *string `json:"sotd_artist" validate:"omitempty,max=200"`
	SongPicture    *string `json:"song_picture" validate:"omitempty,max=255"`
}

func (in UpdateProfileInput) profileFields() map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			fields[column] = strings.TrimSpace(*v)
		}
	}
	set("bio", in.Bio)
	set("favorite_genre", in.FavoriteGenre)
	set("profile_picture", in.ProfilePicture)
	set("sotd_title", in.SOTDTitle)
	set("sotd_artist", in.SOTDArtist)
	set("song_picture", in.SongPicture)
	if pic, ok := fields["profile_picture"]; ok && pic == "" {
		fields["profile_picture"] = models.DefaultProfilePicture
	}
	return fields
}

type UserService struct {
	userRepo     repository.UserRepository
	followRepo   repository.FollowRepository
	favoriteRepo repository.FavoriteRepository
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, favoriteRepo repository.FavoriteRepository) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo, favoriteRepo: favoriteRepo}
}

// Register creates a user with its profile. The password is stored as a bcrypt hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FavoriteGenre = strings.TrimSpace(in.FavoriteGenre)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		Profile: models.Profile{
			FavoriteGenre:  in.FavoriteGenre,
			ProfilePicture: models.DefaultProfilePicture,
		},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks username and password. Both an unknown user and a wrong
// password yield the same Unauthorized error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ResolveUsername maps a username to its id.
func (s *UserService) ResolveUsername(ctx context.Context, username string) (uint, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, models.NewNotFoundError("User", username)
	}
	return user.ID, nil
}

// GetProfile assembles the profile page of username as seen by viewerID.
func (s *UserService) GetProfile(ctx context.Context, username string, viewerID uint) (*models.ProfileView, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	followers, err := s.followRepo.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	isFollowing := false
	if viewerID != 0 && viewerID != user.ID {
		if isFollowing, err = s.followRepo.Exists(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}
	favorites, err := s.favoriteRepo.ListAll(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	author := models.AuthorOf(*user)
	return &models.ProfileView{
		ID:             user.ID,
		Username:       user.Username,
		ProfilePicture: author.ProfilePicture,
		Bio:            user.Profile.Bio,
		FavoriteGenre:  user.Profile.FavoriteGenre,
		SongOfTheDay:   user.Profile.SongOfTheDay(),
		FollowersCount: followers,
		FollowingCount: following,
		IsFollowing:    isFollowing,
		IsSelf:         viewerID == user.ID,
		Favorites:      *favorites,
		CreatedAt:      user.CreatedAt,
	}, nil
}

// UpdateProfile applies the non-nil fields of in to the user and its profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" {
			return nil, models.NewValidationError("email cannot be empty")
		}
		if err := s.userRepo.UpdateEmail(ctx, userID, email); err != nil {
			return nil, err
		}
	}
	if fields := in.profileFields(); len(fields) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetByID(ctx, userID)
}

// DeleteAccount removes the user and everything it owns.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if userID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	touched, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	for _, postID := range touched {
		cache.InvalidatePost(ctx, postID)
	}
	return nil
}
