package dashboard

import (
	"html/template"
	"net/http"

	"oanda-dashboard/internal/common"
	"oanda-dashboard/internal/presenter"

	"github.com/rs/zerolog/log"
)

type pageData struct {
	Env       string
	Account   string
	StartFrom string
	Slots     []slotView
}

type slotView struct {
	ID    presenter.Slot
	Title string
}

type indexData struct {
	Environments []envView
}

type envView struct {
	Env     string
	Aliases []string
}

var slotViews = []slotView{
	{presenter.SlotYearToDate, "Year to date"},
	{presenter.SlotRealizedPL, "Realized P/L"},
	{presenter.SlotUnrealizedPL, "Unrealized P/L"},
	{presenter.SlotProfitFactor, "Profit factor"},
	{presenter.SlotInitialBalance, "Initial balance"},
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Account Performance</title>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .card { background: white; border-radius: 10px; padding: 20px; margin-bottom: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
    </style>
</head>
<body>
{{range .Environments}}
    <div class="card">
        <h3>{{.Env}}</h3>
        <ul>{{$env := .Env}}{{range .Aliases}}
            <li><a href="/perf/{{$env}}/{{.}}">{{.}}</a></li>{{end}}
        </ul>
    </div>
{{end}}
</body>
</html>
`))

var pageTemplate = template.Must(template.New("perf").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Account}} ({{.Env}}) - Account Performance</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script src="https://cdn.jsdelivr.net/npm/chart.js@2.9.4/dist/Chart.min.js"></script>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; text-align: center; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 20px; margin-bottom: 20px; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
        .card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; font-size: 1em; }
        .metric-value { font-size: 1.5em; font-weight: bold; color: #333; }
        .positive { color: #28a745; }
        .negative { color: #dc3545; }
        .warning { color: #ffc107; }
        .neutral { color: #333; }
        .gauge { width: 160px; height: 160px; border-radius: 50%; margin: 0 auto; display: flex; align-items: center; justify-content: center; }
        .gauge span { background: white; width: 120px; height: 120px; border-radius: 50%; display: flex; align-items: center; justify-content: center; font-size: 1.5em; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>{{.Account}} <small>({{.Env}})</small></h1></div>

        <div class="grid">
{{range .Slots}}            <div class="card">
                <h3>{{.Title}}</h3>
                <span class="icon" id="{{.ID}}-icon"></span>
                <span class="metric-value" id="{{.ID}}">--</span>
            </div>
{{end}}        </div>

        <div class="grid">
            <div class="card">
                <h3>Win rate</h3>
                <div class="gauge" id="gauge"><span id="gauge-value">--</span></div>
            </div>
            <div class="card">
                <h3>Wins and losses</h3>
                <canvas id="pie" width="300" height="300"></canvas>
            </div>
        </div>
    </div>

    <script>
        const env = "{{.Env}}";
        const account = "{{.Account}}";
        const startFrom = "{{.StartFrom}}";
        const styles = ["positive", "negative", "warning", "neutral"];
        const icons = {"arrow-up": "▲ ", "arrow-down": "▼ "};
        let labels = [];

        const pie = new Chart(document.getElementById("pie"), {
            type: "pie",
            data: { labels: ["Win", "Loss"], datasets: [{ data: [0, 0], backgroundColor: [] }] },
            options: { responsive: false, legend: { position: "bottom" }, animation: { duration: 0 } },
            plugins: [{
                afterDraw: function(chart) {
                    const ctx = chart.ctx;
                    ctx.save();
                    ctx.textAlign = "center";
                    ctx.textBaseline = "bottom";
                    labels.forEach(function(l) {
                        ctx.fillStyle = l.color;
                        ctx.fillText(l.valueText, l.x, l.y);
                        ctx.fillText(l.percentText, l.x, l.percentY);
                    });
                    ctx.restore();
                }
            }]
        });

        function apply(presentation) {
            Object.entries(presentation.slots).forEach(function([slot, d]) {
                const el = document.getElementById(slot);
                if (!el) { return; }
                el.textContent = d.text;
                el.classList.remove(...styles);
                el.classList.add(d.style);
                document.getElementById(slot + "-icon").textContent = icons[d.icon] || "";
            });
            const g = presentation.gauge;
            document.getElementById("gauge-value").textContent = Math.round(g) + "%";
            document.getElementById("gauge").style.background =
                "conic-gradient(#4BC0C0 " + (g * 3.6) + "deg, #eee 0deg)";
        }

        function query() {
            return startFrom ? "?start_from=" + startFrom : "";
        }

        function refreshChart() {
            const canvas = document.getElementById("pie");
            const sep = startFrom ? "&" : "?";
            fetch("/api/v1/" + env + "/account/" + account + "/chart" + query() + sep +
                  "width=" + canvas.width + "&height=" + (canvas.height - chartLegendHeight()))
                .then(function(r) { return r.json(); })
                .then(function(body) {
                    pie.data.datasets[0].data = body.data.dataset.values;
                    pie.data.datasets[0].backgroundColor = body.data.dataset.colors;
                    labels = body.data.labels;
                    pie.update();
                });
        }

        function chartLegendHeight() {
            return pie.legend ? pie.legend.height : 0;
        }

        function update(u) {
            apply(u.presentation);
            refreshChart();
        }

        fetch("/api/v1/" + env + "/account/" + account + "/presentation" + query())
            .then(function(r) { return r.json(); })
            .then(function(body) { if (body.data) { update(body.data); } });

        const proto = location.protocol === "https:" ? "wss://" : "ws://";
        const ws = new WebSocket(proto + location.host + "/ws/" + env + "/" + account + query());
        ws.onmessage = function(event) { update(JSON.parse(event.data)); };
    </script>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{}
	for _, env := range []string{common.EnvPractice, common.EnvLive} {
		if aliases := s.accounts.Aliases(env); len(aliases) > 0 {
			data.Environments = append(data.Environments, envView{Env: env, Aliases: aliases})
		}
	}
	render(w, indexTemplate, data)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	req, err := s.resolve(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	data := pageData{Env: req.Env, Account: req.Alias, Slots: slotViews}
	if !req.StartFrom.IsZero() {
		data.StartFrom = req.StartFrom.Format(common.DefaultDateLayout)
	}
	render(w, pageTemplate, data)
}

func render(w http.ResponseWriter, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		log.Error().Err(err).Str("template", t.Name()).Msg("Failed to render page")
	}
}
