package upstream

import "time"

// Moderation states as the recipe service spells them.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type AuthResponse struct {
	Token          string `json:"token"`
	Type           string `json:"type"`
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type ProfileStats struct {
	TotalLikes    int `json:"totalLikes"`
	TotalComments int `json:"totalComments"`
	TotalViews    int `json:"totalViews"`
}

type Profile struct {
	ID              string        `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	ProfilePicture  string        `json:"profilePicture,omitempty"`
	Bio             string        `json:"bio,omitempty"`
	FullName        string        `json:"fullName,omitempty"`
	PhoneNumber     string        `json:"phoneNumber,omitempty"`
	Location        string        `json:"location,omitempty"`
	Website         string        `json:"website,omitempty"`
	FavoriteRecipes int           `json:"favoriteRecipes"`
	CreatedRecipes  int           `json:"createdRecipes"`
	CookedRecipes   int           `json:"cookedRecipes"`
	Followers       int           `json:"followers"`
	Following       int           `json:"following"`
	JoinedDate      string        `json:"joinedDate"`
	LastActive      string        `json:"lastActive,omitempty"`
	Stats           *ProfileStats `json:"stats,omitempty"`
}

type UpdateProfileRequest struct {
	Username       *string `json:"username,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	FullName       *string `json:"fullName,omitempty"`
	PhoneNumber    *string `json:"phoneNumber,omitempty"`
	Location       *string `json:"location,omitempty"`
	Website        *string `json:"website,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SuccessResponse is the auth service's acknowledgement body.
type SuccessResponse struct {
	Message string `json:"message"`
}

type Recipe struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl"`
	Ingredients    []string  `json:"ingredients"`
	Steps          []string  `json:"steps"`
	Category       string    `json:"category"`
	PrepTime       int       `json:"prepTime"`
	CookTime       int       `json:"cookTime"`
	Difficulty     string    `json:"difficulty"`
	UserID         string    `json:"userId"`
	AverageRating  float64   `json:"averageRating"`
	TotalRatings   int       `json:"totalRatings,omitempty"`
	TotalFavorites int       `json:"totalFavorites,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RecipeQuery struct {
	Status   string
	Category string
	UserID   string
}

type CreateRecipeRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Category    string   `json:"category"`
	PrepTime    int      `json:"prepTime"`
	CookTime    int      `json:"cookTime"`
	Difficulty  string   `json:"difficulty"`
	UserID      string   `json:"userId"`
}

// UpdateRecipeRequest is a partial update; nil fields are left alone.
type UpdateRecipeRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Steps       []string `json:"steps,omitempty"`
	Category    *string  `json:"category,omitempty"`
	PrepTime    *int     `json:"prepTime,omitempty"`
	CookTime    *int     `json:"cookTime,omitempty"`
	Difficulty  *string  `json:"difficulty,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

type CreateCommentRequest struct {
	RecipeID        string  `json:"recipeId"`
	UserID          string  `json:"userId"`
	Text            string  `json:"text"`
	ParentCommentID *string `json:"parentCommentId,omitempty"`
}

type Rating struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipeId"`
	UserID    string    `json:"userId"`
	Stars     int       `json:"stars"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	RecipeID  string    `json:"recipeId"`
	CreatedAt time.Time `json:"createdAt"`
}
