package watershed

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/names"
)

// Geoserver methods of a drainage line layer.
const (
	MethodSimple         = "simple"
	MethodNaturFlowQuery = "natur_flow_query"
)

// naturFlowAttribute enables query based rendering of a drainage line.
const naturFlowAttribute = "Natur_Flow"

// optionalAttributes are reported when present on a drainage line.
var optionalAttributes = []string{"usgs_id", "nws_id", "hydroserve"} //nolint:gochecknoglobals

// Layer describes one map layer. KML layers only carry a URL.
type Layer struct {
	Name                string      `json:"name,omitempty"`
	URL                 string      `json:"url,omitempty"`
	GeoJSONP            string      `json:"geojsonp,omitempty"`
	LatLonBBox          *[4]float64 `json:"latlon_bbox,omitempty"`
	Projection          string      `json:"projection,omitempty"`
	ContainedAttributes []string    `json:"contained_attributes,omitempty"`
	MissingAttributes   []string    `json:"missing_attributes,omitempty"`
	GeoserverMethod     string      `json:"geoserver_method,omitempty"`
}

// LayerInfo is what the map needs to draw a watershed.
type LayerInfo struct {
	ID           uint64 `json:"id"`
	Watershed    string `json:"watershed"`
	Subbasin     string `json:"subbasin"`
	Title        string `json:"title"`
	GeoserverURL string `json:"geoserver_url,omitempty"`
	DrainageLine *Layer `json:"drainage_line,omitempty"`
	Catchment    *Layer `json:"catchment,omitempty"`
	Gage         *Layer `json:"gage,omitempty"`
}

func (li *LayerInfo) set(k models.LayerKind, l *Layer) {
	switch k {
	case models.LayerCatchment:
		li.Catchment = l
	case models.LayerGage:
		li.Gage = l
	default:
		li.DrainageLine = l
	}
}

// Layers returns the map layers of watersheds, in order.
// Missing KML files and unreachable GeoServer resources are left out.
func (s *Service) Layers(ctx context.Context, watersheds []models.Watershed) []LayerInfo {
	out := make([]LayerInfo, 0, len(watersheds))

	for i := range watersheds {
		w := &watersheds[i]

		info := LayerInfo{
			ID:        w.ID,
			Watershed: w.FolderName,
			Subbasin:  w.FileName,
			Title:     names.WatershedTitle(w.WatershedName, w.SubbasinName),
		}

		if w.Geoserver.IsLocal {
			s.kmlLayers(w, &info)
		} else {
			s.geoserverLayers(ctx, w, &info)
		}

		out = append(out, info)
	}

	return out
}

func (s *Service) kmlLayers(w *models.Watershed, info *LayerInfo) {
	for _, k := range models.LayerKinds {
		name := w.KMLLayer(k)
		if name == "" || !s.KML.Exists(w.FolderName, name) {
			continue
		}

		info.set(k, &Layer{URL: s.KML.URL(w.FolderName, name)})
	}
}

func (s *Service) geoserverLayers(ctx context.Context, w *models.Watershed, info *LayerInfo) {
	info.GeoserverURL = geoserver.NormalizeURL(w.Geoserver.URL) + "/wms"
	engine := s.engine(&w.Geoserver)

	for _, k := range models.LayerKinds {
		name := w.GeoserverLayer(k)
		if name == "" {
			continue
		}

		resource, err := engine.GetResource(ctx, name)
		if err != nil {
			log.Debug().Err(err).Str("layer", name).Msg("geoserver layer unavailable")

			continue
		}

		bbox := resource.MapBBox()
		layer := &Layer{Name: name, LatLonBBox: &bbox, Projection: resource.Projection}

		if k == models.LayerDrainageLine {
			layer.GeoJSONP = resource.GeoJSONP
			layer.ContainedAttributes, layer.MissingAttributes = CheckAttributes(resource)

			layer.GeoserverMethod = MethodSimple
			if resource.HasAttribute(naturFlowAttribute) {
				layer.GeoserverMethod = MethodNaturFlowQuery
			}
		}

		info.set(k, layer)
	}
}

// CheckAttributes reports which drainage line attributes the map can use and which are missing.
// A reach needs COMID or else HydroID, and both watershed and subbasin. Names match case-insensitively.
func CheckAttributes(resource *geoserver.Resource) (contained, missing []string) {
	find := func(name string) bool {
		attr, ok := resource.FindAttribute(name)
		if ok {
			contained = append(contained, attr)
		}

		return ok
	}

	if !find("COMID") {
		missing = append(missing, "COMID")

		if !find("HydroID") {
			missing = append(missing, "HydroID")
		}
	}

	if !find("watershed") || !find("subbasin") {
		missing = append(missing, "watershed", "subbasin")
	}

	for _, name := range optionalAttributes {
		find(name)
	}

	return contained, missing
}
