package render

import "html/template"

// pageData feeds the map page template. Pins is serialized to JSON by the
// template's script context; popup HTML inside it is escaped at build time.
type pageData struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	Pins      []pin
	Legend    *legend
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.magnitude-label { font-size: 11px; font-weight: bold; color: #333; text-shadow: 0 0 2px #fff; white-space: nowrap; }
.legend { position: fixed; bottom: 30px; right: 10px; z-index: 1000; background: #fff; padding: 10px 12px; border: 1px solid #999; border-radius: 4px; font: 12px/1.5 sans-serif; }
.legend .swatch { display: inline-block; width: 14px; height: 14px; margin-right: 6px; vertical-align: middle; border: 1px solid #666; }
</style>
</head>
<body>
<div id="map"></div>
{{- if .Legend}}
<div class="legend">
  <b>Households</b><br>
  min: {{.Legend.Min}} &mdash; max: {{.Legend.Max}}<br>
  {{- range .Legend.Colors}}
  <span class="swatch" style="background: {{.}}"></span>
  {{- end}}
</div>
{{- end}}
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var pins = {{.Pins}};
pins.forEach(function (p) {
  var m;
  if (p.radius) {
    m = L.circleMarker([p.lat, p.lon], {
      radius: p.radius,
      color: p.color,
      fillColor: p.color,
      fillOpacity: 0.7
    });
    L.marker([p.lat, p.lon], {
      icon: L.divIcon({ className: 'magnitude-label', html: p.label })
    }).addTo(map);
  } else {
    m = L.marker([p.lat, p.lon]);
  }
  m.bindTooltip(p.tooltip).bindPopup(p.popup).addTo(map);
});
</script>
</body>
</html>
`))
