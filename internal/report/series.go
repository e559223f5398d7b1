package report

import "github.com/san-kum/evtwin/internal/powertrain"

type Series struct {
	Label  string
	Color  string
	Values []float64
}

// Chart is one quantity plotted against time.
type Chart struct {
	Key    string
	Title  string
	YLabel string
	Series []Series
}

// ChartKeys lists the standard charts in report order.
var ChartKeys = []string{"soc", "speed", "power", "temp"}

func column(records []powertrain.Record, get func(powertrain.Record) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = get(r)
	}
	return out
}

func Times(records []powertrain.Record) []float64 {
	return column(records, func(r powertrain.Record) float64 { return r.TimeMinutes })
}

// Charts builds the standard SOC, speed, power and temperature charts.
func Charts(records []powertrain.Record) []Chart {
	return []Chart{
		{
			Key: "soc", Title: "Battery SOC vs Time", YLabel: "Battery SOC (%)",
			Series: []Series{{Label: "SOC", Color: "#00d084", Values: column(records, func(r powertrain.Record) float64 { return r.BatterySOCPercent })}},
		},
		{
			Key: "speed", Title: "Speed vs Time", YLabel: "Speed (km/h)",
			Series: []Series{{Label: "Speed", Color: "#4aa3ff", Values: column(records, func(r powertrain.Record) float64 { return r.SpeedKmph })}},
		},
		{
			Key: "power", Title: "Power vs Time", YLabel: "Power (kW)",
			Series: []Series{
				{Label: "Mechanical", Color: "#ff9f1c", Values: column(records, func(r powertrain.Record) float64 { return r.MechanicalPowerKW })},
				{Label: "Electrical", Color: "#e71d36", Values: column(records, func(r powertrain.Record) float64 { return r.ElectricalPowerKW })},
			},
		},
		{
			Key: "temp", Title: "Battery Temp vs Time", YLabel: "Battery Temp (°C)",
			Series: []Series{{Label: "Temperature", Color: "#c77dff", Values: column(records, func(r powertrain.Record) float64 { return r.BatteryTempC })}},
		},
	}
}
