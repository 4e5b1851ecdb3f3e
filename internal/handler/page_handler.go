package handler

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"sensor-ingest/internal/service"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="pt-BR">
  <head>
    <meta charset="utf-8" />
    <title>Dados dos Sensores</title>
    <style>
      body{font-family:sans-serif;margin:2rem;background:#fafafa;}
      table{border-collapse:collapse;min-width:640px;}
      th,td{border:1px solid #ccc;padding:.4rem .8rem;text-align:right;}
      th{background:#eee;}
    </style>
  </head>
  <body>
    <h1>Dados dos Sensores</h1>
    <p><a href="/graficos">Ver gráficos</a></p>
    <table>
      <thead>
        <tr><th>ID</th><th>Sensor</th><th>Temperatura (°C)</th><th>Umidade (%)</th><th>Data/Hora</th></tr>
      </thead>
      <tbody>
      {{- range .}}
        <tr><td>{{.ID}}</td><td>{{.SensorID}}</td><td>{{.Temperature}}</td><td>{{.Humidity}}</td><td>{{.Timestamp}}</td></tr>
      {{- else}}
        <tr><td colspan="5">Nenhum dado registrado.</td></tr>
      {{- end}}
      </tbody>
    </table>
  </body>
</html>
`))

const chartsPage = `<!doctype html>
<html lang="pt-BR">
  <head>
    <meta charset="utf-8" />
    <title>Gráficos dos Sensores</title>
    <style>body{font-family:sans-serif;margin:2rem;background:#fafafa;}canvas{max-width:960px;margin-bottom:2rem;}</style>
  </head>
  <body>
    <h1>Gráficos dos Sensores</h1>
    <p><a href="/">Ver tabela</a></p>
    <canvas id="temperatura"></canvas>
    <canvas id="umidade"></canvas>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
    <script>
      function draw(id, label, labels, values, color) {
        return new Chart(document.getElementById(id), {
          type: 'line',
          data: { labels: labels, datasets: [{ label: label, data: values, borderColor: color, tension: 0.2 }] }
        });
      }
      function follow(temp, hum) {
        var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
        var ws = new WebSocket(scheme + location.host + '/ws/leituras');
        ws.onmessage = function (ev) {
          var msg = JSON.parse(ev.data);
          [temp, hum].forEach(function (chart) {
            if (msg.type === 'readings.cleared') {
              chart.data.labels.length = 0;
              chart.data.datasets[0].data.length = 0;
            }
          });
          if (msg.type === 'reading.created' && msg.reading) {
            temp.data.labels.push(msg.reading.timestamp);
            temp.data.datasets[0].data.push(msg.reading.temperatura);
            hum.data.labels.push(msg.reading.timestamp);
            hum.data.datasets[0].data.push(msg.reading.umidade);
          }
          temp.update();
          hum.update();
        };
      }
      fetch('/dados-sensores-json')
        .then(function (res) { return res.json(); })
        .then(function (feed) {
          var temp = draw('temperatura', 'Temperatura (°C)', feed.timestamp, feed.temperatura, '#d9534f');
          var hum = draw('umidade', 'Umidade (%)', feed.timestamp.slice(), feed.umidade, '#0275d8');
          follow(temp, hum);
        });
    </script>
  </body>
</html>
`

type PageHandler struct {
	readings *service.ReadingService
}

func NewPageHandler(readings *service.ReadingService) *PageHandler {
	return &PageHandler{readings: readings}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	readings, err := h.readings.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, readings); err != nil {
		slog.Error("render index page", "error", err)
		writeMessage(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *PageHandler) Charts(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:; script-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(chartsPage))
}
