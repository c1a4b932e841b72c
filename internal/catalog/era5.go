package catalog

// Sampling rates per shard family. Forecast shards carry two forecast steps
// per day; everything else is hourly.
const (
	hourlySamples   = 24
	forecastSamples = 2
)

// Default returns the built-in reanalysis catalog: every shard group the
// upstream archive produces, with the variables each group's GRIB files
// carry.
//
// Model-level groups (dve, tw, o3q, qrqs) arrive as one file per day.
// Single-level groups arrive as one file per month sampled daily; the soil
// and pcp groups are additionally split into one file per variable, which is
// why their keys embed the level and short name.
func Default() *Catalog {
	c, err := New([]Group{
		// Model level: wind.
		{Name: "dve", Variables: []string{"d", "vo"}, SamplesPerDay: hourlySamples},
		{Name: "tw", Variables: []string{"t", "w"}, SamplesPerDay: hourlySamples},

		// Model level: moisture.
		{Name: "o3q", Variables: []string{"q", "o3", "clwc", "ciwc", "cc"}, SamplesPerDay: hourlySamples},
		{Name: "qrqs", Variables: []string{"crwc", "cswc"}, SamplesPerDay: hourlySamples},

		// Single level: surface.
		{Name: "lnsp", Variables: []string{"lnsp"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "zs", Variables: []string{"z"}, Daily: true, SamplesPerDay: hourlySamples},

		// Single level: reanalysis.
		{Name: "cape", Variables: []string{"cape", "p79.162", "p80.162"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "cisst", Variables: []string{"siconc", "sst", "skt"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "sfc", Variables: []string{"z", "sp", "tcwv", "msl", "tcc", "u10", "v10",
			"t2m", "d2m", "lcc", "mcc", "hcc", "u100", "v100"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "tcol", Variables: []string{"tclw", "tciw", "tcw", "tcwv", "tcrw", "tcsw"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_istl1", Variables: []string{"istl1"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_istl2", Variables: []string{"istl2"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_istl3", Variables: []string{"istl3"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_istl4", Variables: []string{"istl4"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_stl1", Variables: []string{"stl1"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_stl2", Variables: []string{"stl2"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_stl3", Variables: []string{"stl3"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_stl4", Variables: []string{"stl4"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_swvl1", Variables: []string{"swvl1"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_swvl2", Variables: []string{"swvl2"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_swvl3", Variables: []string{"swvl3"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_depthBelowLandLayer_swvl4", Variables: []string{"swvl4"}, Daily: true, SamplesPerDay: hourlySamples},
		{Name: "soil_surface_tsn", Variables: []string{"tsn"}, Daily: true, SamplesPerDay: hourlySamples},

		// Single level: forecast.
		{Name: "rad", Variables: []string{"ssrd", "strd", "str", "ttr", "gwd"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_cp", Variables: []string{"cp"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_crr", Variables: []string{"crr"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_csf", Variables: []string{"csf"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_csfr", Variables: []string{"csfr"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_es", Variables: []string{"es"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_lsf", Variables: []string{"lsf"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_lsp", Variables: []string{"lsp"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_lspf", Variables: []string{"lspf"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_lsrr", Variables: []string{"lsrr"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_lssfr", Variables: []string{"lssfr"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_ptype", Variables: []string{"ptype"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_rsn", Variables: []string{"rsn"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_sd", Variables: []string{"sd"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_sf", Variables: []string{"sf"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_smlt", Variables: []string{"smlt"}, Daily: true, SamplesPerDay: forecastSamples},
		{Name: "pcp_surface_tp", Variables: []string{"tp"}, Daily: true, SamplesPerDay: forecastSamples},
	})
	if err != nil {
		// The built-in catalog is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return c
}
