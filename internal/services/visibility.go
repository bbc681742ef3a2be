package services

import (
	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/models"
)

// PrivateProfileName replaces the display name on redacted profile views.
const PrivateProfileName = "Private Profile"

// CanViewProfile decides whether viewerID may see the profile's non-public
// fields. A block in either direction denies everything, including public
// profiles. viewerID == uuid.Nil means anonymous: worst case for every tier
// except public.
func CanViewProfile(p *models.AthleteProfile, viewerID uuid.UUID, rels RelationshipReader) bool {
	if viewerID == p.ID {
		return true
	}
	if viewerID != uuid.Nil && rels.IsBlocked(p.ID, viewerID) {
		return false
	}

	switch p.ParentalControls.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityFriends:
		return viewerID != uuid.Nil && rels.IsFriend(p.ID, viewerID)
	default:
		// private, or an unknown tier treated as private
		return false
	}
}

// CanViewActivity decides whether an item may appear in a feed built for
// viewerID. The item's own IsPublic flag is an AND-condition on top of the
// owner's effective visibility; it gates even the owner's own feed.
func CanViewActivity(item *models.ActivityFeedItem, owner *models.AthleteProfile, viewerID uuid.UUID, rels RelationshipReader) bool {
	if !item.IsPublic {
		return false
	}
	if viewerID == item.UserID {
		return true
	}
	return CanViewProfile(owner, viewerID, rels)
}

// RedactProfile returns the stub view shown when CanViewProfile is false:
// bio, stats and achievements stripped, display name replaced by the private
// sentinel. Id, username and sport stay visible so a stub card can render.
func RedactProfile(p *models.AthleteProfile) *models.ProfileView {
	return &models.ProfileView{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: PrivateProfileName,
		Sport:       p.Sport,
	}
}

// profileView builds the unredacted display view without derived stats.
func profileView(p *models.AthleteProfile) *models.ProfileView {
	return &models.ProfileView{
		ID:             p.ID,
		Username:       p.Username,
		DisplayName:    p.DisplayName,
		AvatarURL:      p.AvatarURL,
		Sport:          p.Sport,
		ExperienceTier: p.ExperienceTier,
		Bio:            p.Bio,
	}
}
