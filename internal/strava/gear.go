package strava

import "context"

// GearNamer resolves a gear id to its display name.
type GearNamer interface {
	GearName(ctx context.Context, gearID string) (string, error)
}

// CachedGear resolves gear names through the API, caching results in the
// state DB so repeat exports for the same shoes skip the request.
type CachedGear struct {
	Client *Client
	Store  *StateDB
}

// GearName implements GearNamer.
func (g *CachedGear) GearName(ctx context.Context, gearID string) (string, error) {
	if name, ok, err := g.Store.GearName(gearID); err != nil {
		return "", err
	} else if ok {
		return name, nil
	}

	gear, err := g.Client.GetGear(ctx, gearID)
	if err != nil {
		return "", err
	}
	name, _ := gear["name"].(string)
	if name == "" {
		return "", nil
	}
	if err := g.Store.SaveGearName(gearID, name); err != nil {
		return "", err
	}
	return name, nil
}
