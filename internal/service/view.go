package service

import "github.com/microarena/api/internal/model"

// clanOrUnknown returns the live clan or the "Unknown Clan" placeholder for
// a disbanded one.
func clanOrUnknown(clans ClanRepository, id string) *model.Clan {
	if c := clans.GetClan(id); c != nil {
		return c
	}
	return model.UnknownClan(id)
}

// participants resolves user ids to display snapshots, skipping unknown ids.
func participants(users UserRepository, ids []string) []model.Participant {
	out := make([]model.Participant, 0, len(ids))
	for _, id := range ids {
		if u := users.GetUser(id); u != nil {
			out = append(out, model.Participant{ID: u.ID, Username: u.Username})
		}
	}
	return out
}
