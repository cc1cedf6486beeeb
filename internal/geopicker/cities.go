package geopicker

// Cities is a curated subset of the world's major population centers, a
// small stand-in for the 10,000-city database of
// original_source/src/geo/city_selector.rs. Coordinates are city-center
// approximations, adequate for twilight-angle solar geometry which is
// insensitive to sub-degree placement.
var Cities = []City{
	{"New York", "United States", 40.7128, -74.0060},
	{"Los Angeles", "United States", 34.0522, -118.2437},
	{"Chicago", "United States", 41.8781, -87.6298},
	{"Houston", "United States", 29.7601, -95.3701},
	{"San Francisco", "United States", 37.7749, -122.4194},
	{"Seattle", "United States", 47.6062, -122.3321},
	{"Toronto", "Canada", 43.6532, -79.3832},
	{"Vancouver", "Canada", 49.2827, -123.1207},
	{"Mexico City", "Mexico", 19.4326, -99.1332},
	{"London", "United Kingdom", 51.5072, -0.1276},
	{"Manchester", "United Kingdom", 53.4808, -2.2426},
	{"Dublin", "Ireland", 53.3498, -6.2603},
	{"Paris", "France", 48.8566, 2.3522},
	{"Berlin", "Germany", 52.5200, 13.4050},
	{"Munich", "Germany", 48.1351, 11.5820},
	{"Madrid", "Spain", 40.4168, -3.7038},
	{"Barcelona", "Spain", 41.3851, 2.1734},
	{"Rome", "Italy", 41.9028, 12.4964},
	{"Milan", "Italy", 45.4642, 9.1900},
	{"Amsterdam", "Netherlands", 52.3676, 4.9041},
	{"Brussels", "Belgium", 50.8503, 4.3517},
	{"Zurich", "Switzerland", 47.3769, 8.5417},
	{"Vienna", "Austria", 48.2082, 16.3738},
	{"Warsaw", "Poland", 52.2297, 21.0122},
	{"Prague", "Czech Republic", 50.0755, 14.4378},
	{"Stockholm", "Sweden", 59.3293, 18.0686},
	{"Oslo", "Norway", 59.9139, 10.7522},
	{"Copenhagen", "Denmark", 55.6761, 12.5683},
	{"Helsinki", "Finland", 60.1699, 24.9384},
	{"Reykjavik", "Iceland", 64.1466, -21.9426},
	{"Tromso", "Norway", 69.6492, 18.9553},
	{"Longyearbyen", "Norway", 78.2232, 15.6267},
	{"Moscow", "Russia", 55.7558, 37.6173},
	{"Saint Petersburg", "Russia", 59.9311, 30.3609},
	{"Murmansk", "Russia", 68.9585, 33.0827},
	{"Istanbul", "Turkey", 41.0082, 28.9784},
	{"Athens", "Greece", 37.9838, 23.7275},
	{"Lisbon", "Portugal", 38.7223, -9.1393},
	{"Cairo", "Egypt", 30.0444, 31.2357},
	{"Lagos", "Nigeria", 6.5244, 3.3792},
	{"Nairobi", "Kenya", -1.2921, 36.8219},
	{"Johannesburg", "South Africa", -26.2041, 28.0473},
	{"Cape Town", "South Africa", -33.9249, 18.4241},
	{"Tel Aviv", "Israel", 32.0853, 34.7818},
	{"Dubai", "United Arab Emirates", 25.2048, 55.2708},
	{"Riyadh", "Saudi Arabia", 24.7136, 46.6753},
	{"Mumbai", "India", 19.0760, 72.8777},
	{"Delhi", "India", 28.7041, 77.1025},
	{"Bangalore", "India", 12.9716, 77.5946},
	{"Karachi", "Pakistan", 24.8607, 67.0011},
	{"Dhaka", "Bangladesh", 23.8103, 90.4125},
	{"Bangkok", "Thailand", 13.7563, 100.5018},
	{"Singapore", "Singapore", 1.3521, 103.8198},
	{"Jakarta", "Indonesia", -6.2088, 106.8456},
	{"Kuala Lumpur", "Malaysia", 3.1390, 101.6869},
	{"Manila", "Philippines", 14.5995, 120.9842},
	{"Hong Kong", "China", 22.3193, 114.1694},
	{"Shanghai", "China", 31.2304, 121.4737},
	{"Beijing", "China", 39.9042, 116.4074},
	{"Seoul", "South Korea", 37.5665, 126.9780},
	{"Tokyo", "Japan", 35.6762, 139.6503},
	{"Osaka", "Japan", 34.6937, 135.5023},
	{"Sapporo", "Japan", 43.0618, 141.3545},
	{"Sydney", "Australia", -33.8688, 151.2093},
	{"Melbourne", "Australia", -37.8136, 144.9631},
	{"Perth", "Australia", -31.9505, 115.8605},
	{"Auckland", "New Zealand", -36.8485, 174.7633},
	{"Sao Paulo", "Brazil", -23.5505, -46.6333},
	{"Rio de Janeiro", "Brazil", -22.9068, -43.1729},
	{"Buenos Aires", "Argentina", -34.6037, -58.3816},
	{"Santiago", "Chile", -33.4489, -70.6693},
	{"Bogota", "Colombia", 4.7110, -74.0721},
	{"Lima", "Peru", -12.0464, -77.0428},
	{"Ushuaia", "Argentina", -54.8019, -68.3030},
	{"Anchorage", "United States", 61.2181, -149.9003},
	{"Fairbanks", "United States", 64.8378, -147.7164},
	{"Reykjavik Suburbs", "Iceland", 64.0, -21.8},
	{"Nuuk", "Greenland", 64.1836, -51.7214},
	{"McMurdo Station", "Antarctica", -77.8419, 166.6863},
}
