package handler

import "foodgram/internal/users/models"

// RegisteredUserResponse is returned by sign-up.
type RegisteredUserResponse struct {
	Email     string `json:"email"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserResponse is a user as seen by the caller.
type UserResponse struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// RecipeBriefResponse is the short recipe form.
type RecipeBriefResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionResponse is a followed author with a recipe preview.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeBriefResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

func toRegisteredResponse(u *models.User) RegisteredUserResponse {
	return RegisteredUserResponse{
		Email:     u.Email,
		ID:        int64(u.ID),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func toUserResponse(p models.Profile) UserResponse {
	return UserResponse{
		Email:        p.Email,
		ID:           int64(p.ID),
		Username:     p.Username,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IsSubscribed: p.IsSubscribed,
	}
}

func toSubscriptionResponse(s models.Subscription) SubscriptionResponse {
	recipes := make([]RecipeBriefResponse, len(s.Recipes))
	for i, r := range s.Recipes {
		recipes[i] = RecipeBriefResponse{
			ID:          int64(r.ID),
			Name:        r.Name,
			Image:       r.Image,
			CookingTime: r.CookingTime,
		}
	}
	return SubscriptionResponse{
		UserResponse: toUserResponse(s.Author),
		Recipes:      recipes,
		RecipesCount: s.Count,
	}
}
