package host

import (
	"encoding/json"
	"maps"
)

// Resource is a host resource. Fields the plugin does not model are kept
// in Extras so eligibility predicates can inspect them.
type Resource struct {
	ID        string         `json:"id"`
	PackageID string         `json:"package_id"`
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	URLType   string         `json:"url_type"`
	Format    string         `json:"format"`
	MimeType  string         `json:"mimetype"`
	Extras    map[string]any `json:"-"`
}

type resourceFields Resource

var resourceKeys = []string{"id", "package_id", "name", "url", "url_type", "format", "mimetype"}

// UnmarshalJSON decodes the known fields and keeps the rest in Extras.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var fields resourceFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range resourceKeys {
		delete(all, k)
	}
	*r = Resource(fields)
	if len(all) > 0 {
		r.Extras = all
	}
	return nil
}

// MarshalJSON encodes the known fields and Extras as one object.
func (r Resource) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extras)+len(resourceKeys))
	maps.Copy(out, r.Extras)
	out["id"] = r.ID
	out["package_id"] = r.PackageID
	out["name"] = r.Name
	out["url"] = r.URL
	out["url_type"] = r.URLType
	out["format"] = r.Format
	out["mimetype"] = r.MimeType
	return json.Marshal(out)
}

// Extra returns a string extra field, or "" when absent or not a string.
func (r *Resource) Extra(key string) string {
	s, _ := r.Extras[key].(string)
	return s
}

// Dataset is a host dataset (package).
type Dataset struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Title            string      `json:"title"`
	Private          bool        `json:"private"`
	SearchtermsError string      `json:"searchterms_error"`
	Resources        []*Resource `json:"resources"`
}

// ResourcesNamed returns the dataset's resources with the given name.
func (d *Dataset) ResourcesNamed(name string) []*Resource {
	var out []*Resource
	for _, r := range d.Resources {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// Label returns "id (name)" for messages.
func (d *Dataset) Label() string {
	return d.ID + " (" + d.Name + ")"
}
